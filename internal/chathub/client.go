package chathub

// Client is one live session: an authenticated connection bound to a
// thread, with an outbound channel the hub writes into. Abstracting
// the connection lets the hub and gateway be tested without a real
// websocket.
type Client interface {
	// GetUserID returns the routing key the session is registered
	// under.
	GetUserID() string
	// GetThreadID returns the thread the session is bound to.
	GetThreadID() uint
	// GetSendChannel returns the session's outbound channel. Frames
	// written here are delivered in order by the write pump.
	GetSendChannel() chan<- []byte
	// Run starts the session's read and write pumps.
	Run()
	// Close shuts down the outbound channel, which terminates the
	// write pump and with it the connection.
	Close()
}
