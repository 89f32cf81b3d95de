package chat

// EndReason explains why a session left the active state.
type EndReason string

const (
	EndTimeLimit    EndReason = "time_limit"
	EndMessageLimit EndReason = "message_limit"
	EndManual       EndReason = "manual"
	EndDisconnect   EndReason = "disconnect"
)
