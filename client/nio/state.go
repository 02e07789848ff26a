package nio

// MessageState is the phase a single side (request or response) of an
// exchange is currently in. Request and response sides each track their own
// MessageState independently.
type MessageState uint8

const (
	// Ready means no message is in flight on this side.
	Ready MessageState = iota
	// AckExpected means a request head was submitted with
	// Expect: 100-continue and the side is waiting for either a 100
	// (Continue) or a final response; output is suspended meanwhile.
	AckExpected
	// Ack means a 100-continue was received; output has been re-enabled
	// and body streaming is about to begin.
	Ack
	// BodyStream means body bytes are currently being written or read.
	BodyStream
	// Completed means this side of the exchange has finished, awaiting
	// either the other side or a reset.
	Completed
)

func (s MessageState) String() string {
	switch s {
	case Ready:
		return "READY"
	case AckExpected:
		return "ACK_EXPECTED"
	case Ack:
		return "ACK"
	case BodyStream:
		return "BODY_STREAM"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}
