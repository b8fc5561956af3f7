package chathub

// Client is the interface for one authenticated realtime connection. It
// abstracts the transport so the hub can manage connections uniformly.
type Client interface {
	// GetUserID returns the user the connection was authenticated as.
	GetUserID() string

	// GetSendChannel returns the channel the hub writes outbound frames to.
	// Frames are pre-encoded JSON envelopes.
	GetSendChannel() chan<- []byte

	// Run starts the client's read and write pumps.
	Run()

	// Close shuts the connection down and releases its send channel.
	Close()
}
