package engine

// BufferExhaustionError reports a streaming run that cannot proceed:
// Run invoked with no read buffers attached, or a Step finding a read
// buffer drained mid-stream.
type BufferExhaustionError struct {
	Reason string
}

func (e *BufferExhaustionError) Error() string {
	return "buffer exhaustion: " + e.Reason
}
