package coordinator

// NotConnectedError reports that a facade call requiring an active session
// (SendChat, SetReady, ChangeRoom, LoadMedia) was made while none was
// connected.
type NotConnectedError struct{ Op string }

func (e *NotConnectedError) Error() string { return "coordinator: not connected: " + e.Op }
