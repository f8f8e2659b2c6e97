package session

import "github.com/cooldogedev/rakserver/datagram"

// Context is passed to a Processor for every frame. Cancelling it stops the delivery of the remaining
// frames of the same datagram.
type Context struct {
	cancelled bool
}

// NewContext ...
func NewContext() *Context {
	return &Context{}
}

// Cancel ...
func (c *Context) Cancel() {
	c.cancelled = true
}

// Cancelled ...
func (c *Context) Cancelled() bool {
	return c.cancelled
}

// Processor receives the frames delivered to a session and is notified when the session closes.
// Frames are handed over in the order they appear in their datagram.
type Processor interface {
	// ProcessFrame is called for every frame received by the session.
	ProcessFrame(ctx *Context, s *Session, frame *datagram.Frame)
	// ProcessClose is called once when the session is closed.
	ProcessClose(s *Session)
}

// NopProcessor is a Processor that ignores everything.
type NopProcessor struct{}

// ProcessFrame ...
func (NopProcessor) ProcessFrame(*Context, *Session, *datagram.Frame) {}

// ProcessClose ...
func (NopProcessor) ProcessClose(*Session) {}
