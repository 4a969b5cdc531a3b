package domain

// MessageBuffer is the in-process sink the consumer appends delivered
// payloads to. Implementations must be safe for concurrent use.
type MessageBuffer interface {
	Append(payload string)
	Size() int
	// PollOne removes and returns the oldest payload. ok is false when empty.
	PollOne() (payload string, ok bool)
	Clear()
}
