package promptproof

import "time"

// StreamEventType names an event on the live run stream
type StreamEventType string

const (
	StreamConnected StreamEventType = "connected"
	StreamProgress  StreamEventType = "progress"
	StreamResult    StreamEventType = "result"
	StreamComplete  StreamEventType = "complete"
	StreamError     StreamEventType = "error"
	StreamHeartbeat StreamEventType = "heartbeat"
)

// ConnectedEvent is emitted exactly once, before any other event
type ConnectedEvent struct {
	RunID     string    `json:"run_id"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressEvent is emitted as each work item is picked up
type ProgressEvent struct {
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	Iteration    int    `json:"iteration"`
	TestCaseID   string `json:"test_case_id"`
	TestCaseName string `json:"test_case_name"`
}

// CompleteEvent is the terminal event of a successful stream. Status is
// "completed" when every planned pair produced a result, "incomplete"
// when the run was cut short.
type CompleteEvent struct {
	RunID   string   `json:"run_id"`
	Status  string   `json:"status"`
	TestRun *TestRun `json:"test_run"`
}

// ErrorEvent is the terminal event of an aborted stream
type ErrorEvent struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
}
