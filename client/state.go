package client

// State is where a Client is in its lifecycle.
//
//	Disconnected -> Connected -> Sending -> AwaitingResponse -> Connected
//
// A timeout or malformed reply leaves the client Failed. A hang-up or I/O
// failure closes it. Close moves any state to Closed, which is terminal.
type State int

const (
	Disconnected State = iota
	Connected
	Sending
	AwaitingResponse
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Sending:
		return "sending"
	case AwaitingResponse:
		return "awaiting response"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
