package confpub

// Reporter surfaces run failures to the host CI platform.
type Reporter interface {
	// Fail marks the run as failed with a human-readable message.
	// It may be called more than once.
	Fail(message string)
}
