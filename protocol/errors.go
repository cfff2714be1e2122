package protocol

import "fmt"

// ProtocolError reports a handshake or message-sequencing failure that
// forces a disconnect.
type ProtocolError struct {
	Reason string
	cause  error
}

func (e *ProtocolError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("protocol: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.cause }

// ServerError wraps a server-reported Error message. Unlike ProtocolError,
// the connection may remain usable afterward (spec §7).
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return fmt.Sprintf("server error: %s", e.Message) }

// FeatureGatedError reports an attempt to use a protocol feature the
// connected server has not negotiated.
type FeatureGatedError struct {
	Feature string
}

func (e *FeatureGatedError) Error() string {
	return fmt.Sprintf("protocol: %s is not supported by this server", e.Feature)
}
