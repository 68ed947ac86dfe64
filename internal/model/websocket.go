package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage mirrors a session's persisted progress transition
type WSProgressMessage struct {
	Type        string        `json:"type"`
	SessionID   string        `json:"sessionId"`
	Progress    int           `json:"progress"`
	Status      SessionStatus `json:"status"`
	CurrentStep string        `json:"currentStep,omitempty"`
}

// WSCompleteMessage announces a completed generation with its full result
type WSCompleteMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Result    interface{} `json:"result"`
}

// WSErrorMessage announces a failed generation
type WSErrorMessage struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	Error     WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
