package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hirescope/hirescope/internal/jobs"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/service"
)

type mockStorer struct {
	mock.Mock
}

func (m *mockStorer) StoreText(ctx context.Context, req service.StoreRequest) (models.IngestFileResult, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(models.IngestFileResult), args.Error(1)
}

func ingestJob(args jobs.IngestJobArgs) *river.Job[jobs.IngestJobArgs] {
	return &river.Job[jobs.IngestJobArgs]{JobRow: &rivertype.JobRow{ID: 11}, Args: args}
}

func TestResumeIngestWorker_Work(t *testing.T) {
	args := jobs.IngestJobArgs{Filename: "jane.pdf", RawText: "Name: Jane Doe", UploadedBy: "alice", Overwrite: []string{"Jane Doe"}}

	t.Run("stores and completes", func(t *testing.T) {
		storer := &mockStorer{}
		storer.On("StoreText", mock.Anything, service.StoreRequest{
			Filename: "jane.pdf", RawText: "Name: Jane Doe", UploadedBy: "alice", Overwrite: []string{"Jane Doe"},
		}).Return(models.IngestFileResult{Status: models.IngestStatusStored, CandidateID: "janedoe_1"}, nil).Once()

		err := NewResumeIngestWorker(storer).Work(context.Background(), ingestJob(args))

		require.NoError(t, err)
		storer.AssertExpectations(t)
	})

	t.Run("duplicate completes without retry", func(t *testing.T) {
		storer := &mockStorer{}
		storer.On("StoreText", mock.Anything, mock.AnythingOfType("service.StoreRequest")).
			Return(models.IngestFileResult{Status: models.IngestStatusDuplicate, ExistingIDs: []string{"janedoe_0"}}, nil)

		assert.NoError(t, NewResumeIngestWorker(storer).Work(context.Background(), ingestJob(args)))
	})

	t.Run("failures are returned for retry", func(t *testing.T) {
		storer := &mockStorer{}
		storer.On("StoreText", mock.Anything, mock.AnythingOfType("service.StoreRequest")).
			Return(models.IngestFileResult{Status: models.IngestStatusError}, errors.New("summarization: timeout"))

		err := NewResumeIngestWorker(storer).Work(context.Background(), ingestJob(args))
		assert.EqualError(t, err, "summarization: timeout")
	})

	t.Run("timeout", func(t *testing.T) {
		assert.Equal(t, ResumeIngestTimeout, NewResumeIngestWorker(nil).Timeout(ingestJob(args)))
	})
}
