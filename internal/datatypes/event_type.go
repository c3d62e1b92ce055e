// Package datatypes defines shared types for domain events published by HireScope.
package datatypes

// EventType identifies a candidate lifecycle event.
// Use String() to get the wire name used in NATS subjects and metric labels.
type EventType uint16

// Event type constants; string form is given in eventTypeMap.
const (
	CandidateCreated EventType = iota
	CandidateDeleted
)

// eventTypeMap is the single source of truth for valid event type strings.
var eventTypeMap = map[string]EventType{
	"candidate.created": CandidateCreated,
	"candidate.deleted": CandidateDeleted,
}

var reverseEventTypeMap map[EventType]string

func init() {
	reverseEventTypeMap = make(map[EventType]string, len(eventTypeMap))
	for str, eventType := range eventTypeMap {
		reverseEventTypeMap[eventType] = str
	}
}

// String returns the wire name of et, or "" for an unknown value.
func (et EventType) String() string {
	return reverseEventTypeMap[et]
}

// ParseEventType converts a string to an EventType.
func ParseEventType(s string) (EventType, bool) {
	et, ok := eventTypeMap[s]

	return et, ok
}

// GetAllEventTypes returns all valid event type strings in no particular order.
func GetAllEventTypes() []string {
	types := make([]string, 0, len(eventTypeMap))
	for k := range eventTypeMap {
		types = append(types, k)
	}

	return types
}

// IsValidEventType checks if an event type string is valid.
func IsValidEventType(eventType string) bool {
	_, ok := eventTypeMap[eventType]

	return ok
}
