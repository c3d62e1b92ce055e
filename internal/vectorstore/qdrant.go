package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Payload keys reserved by the Qdrant backend; metadata keys must not collide with them.
const (
	payloadRecordID = "record_id"
	payloadDocument = "document"
)

const qdrantScrollPage = 256

// pointNamespace derives stable Qdrant point UUIDs from candidate ids.
var pointNamespace = uuid.MustParse("6f1c1d2e-64a1-4d0b-9c71-3f7f0c3c9a10")

// QdrantCollection stores the collection in a Qdrant collection over gRPC.
type QdrantCollection struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	name        string
	embedder    Embedder
}

// NewQdrantCollection connects to Qdrant at addr and creates the collection (cosine, dims) if missing.
func NewQdrantCollection(ctx context.Context, addr, name string, dims int, embedder Embedder) (*QdrantCollection, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}

	c := &QdrantCollection{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		name:        name,
		embedder:    embedder,
	}

	if err := c.ensureCollection(ctx, dims); err != nil {
		_ = conn.Close()

		return nil, err
	}

	return c, nil
}

// Close closes the gRPC connection.
func (c *QdrantCollection) Close() error {
	return c.conn.Close()
}

func (c *QdrantCollection) ensureCollection(ctx context.Context, dims int) error {
	list, err := c.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}

	for _, col := range list.GetCollections() {
		if col.GetName() == c.name {
			return nil
		}
	}

	_, err = c.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: c.name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", c.name, err)
	}

	return nil
}

func pointID(id string) *pb.PointId {
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{Uuid: uuid.NewSHA1(pointNamespace, []byte(id)).String()},
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func whereFilter(where Where, ids []string) *pb.Filter {
	if len(where) == 0 && len(ids) == 0 {
		return nil
	}

	must := make([]*pb.Condition, 0, len(where)+1)
	for k, v := range where {
		must = append(must, fieldMatch(k, v))
	}

	if len(ids) > 0 {
		pointIDs := make([]*pb.PointId, 0, len(ids))
		for _, id := range ids {
			pointIDs = append(pointIDs, pointID(id))
		}

		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_HasId{HasId: &pb.HasIdCondition{HasId: pointIDs}},
		})
	}

	return &pb.Filter{Must: must}
}

func recordFromPayload(payload map[string]*pb.Value) Record {
	r := Record{Metadata: Metadata{}}

	for k, v := range payload {
		s := v.GetStringValue()

		switch k {
		case payloadRecordID:
			r.ID = s
		case payloadDocument:
			r.Document = s
		default:
			r.Metadata[k] = s
		}
	}

	return r
}

func withPayload() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}}
}

// Add upserts records as points keyed by a UUID derived from the record id.
func (c *QdrantCollection) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := validateRecords(records); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, 0, len(records))
	for _, r := range records {
		vec, err := c.embedder.CreateEmbedding(ctx, r.Document)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", r.ID, err)
		}

		payload := make(map[string]*pb.Value, len(r.Metadata)+2)
		for k, v := range r.Metadata {
			if k == payloadRecordID || k == payloadDocument {
				return fmt.Errorf("qdrant: metadata key %q is reserved", k)
			}

			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}

		payload[payloadRecordID] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: r.ID}}
		payload[payloadDocument] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: r.Document}}

		points = append(points, &pb.PointStruct{
			Id: pointID(r.ID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vec}},
			},
			Payload: payload,
		})
	}

	wait := true

	_, err := c.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
	}

	return nil
}

// Query runs a k-NN search. Qdrant reports cosine similarity; it is converted to distance.
func (c *QdrantCollection) Query(ctx context.Context, text string, n int) ([]QueryResult, error) {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return []QueryResult{}, nil
	}

	vec, err := c.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	resp, err := c.points.Search(ctx, &pb.SearchPoints{
		CollectionName: c.name,
		Vector:         vec,
		Limit:          uint64(n),
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	results := make([]QueryResult, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		r := recordFromPayload(p.GetPayload())
		results = append(results, QueryResult{
			ID:       r.ID,
			Document: r.Document,
			Metadata: r.Metadata,
			Distance: 1 - float64(p.GetScore()),
		})
	}

	return results, nil
}

// Get scrolls through every point matching where.
func (c *QdrantCollection) Get(ctx context.Context, where Where) ([]Record, error) {
	records := []Record{}
	limit := uint32(qdrantScrollPage)

	var offset *pb.PointId

	for {
		resp, err := c.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: c.name,
			Filter:         whereFilter(where, nil),
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    withPayload(),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: scroll: %w", err)
		}

		for _, p := range resp.GetResult() {
			records = append(records, recordFromPayload(p.GetPayload()))
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	SortRecords(records)

	return records, nil
}

// Delete removes points selected by ids and/or where.
func (c *QdrantCollection) Delete(ctx context.Context, filter DeleteFilter) error {
	if filter.IsEmpty() {
		return ErrEmptyDeleteFilter
	}

	wait := true

	_, err := c.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: whereFilter(filter.Where, filter.IDs),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete: %w", err)
	}

	return nil
}

// Count returns the exact number of points.
func (c *QdrantCollection) Count(ctx context.Context) (int, error) {
	exact := true

	resp, err := c.points.Count(ctx, &pb.CountPoints{
		CollectionName: c.name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count: %w", err)
	}

	return int(resp.GetResult().GetCount()), nil
}
