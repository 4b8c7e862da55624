package runner

import "github.com/promptproof-ai/promptproof-be/pkg/promptproof"

// Event is one entry on a run's outbound event stream. Exactly one
// payload field matching Type is set; Heartbeat events carry none.
//
// The orchestrator writes events to the channel passed to Execute and
// closes it after the terminal event. The consumer must drain the
// channel until it is closed, even after its own client disconnects,
// so in-flight work can finish and the run can be persisted.
type Event struct {
	Type      promptproof.StreamEventType
	Connected *promptproof.ConnectedEvent
	Progress  *promptproof.ProgressEvent
	Result    *promptproof.TestResult
	Complete  *promptproof.CompleteEvent
	Error     *promptproof.ErrorEvent
}

// Payload returns the event's wire payload for SSE encoding
func (e Event) Payload() interface{} {
	switch e.Type {
	case promptproof.StreamConnected:
		return e.Connected
	case promptproof.StreamProgress:
		return e.Progress
	case promptproof.StreamResult:
		return e.Result
	case promptproof.StreamComplete:
		return e.Complete
	case promptproof.StreamError:
		return e.Error
	default:
		return nil
	}
}
