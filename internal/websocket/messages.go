package websocket

// ClientInMessage is the envelope for messages from client to server.
// Types: "chat" | "action" | "sync_state" | "sync_session"
type ClientInMessage struct {
	Type          string                 `json:"type"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// ServerEnvelope is the envelope for messages from server to client.
// Type: "event" | "state" | "session" | "hint" | "error"
type ServerEnvelope struct {
	Type    string                 `json:"type"`
	Event   string                 `json:"event,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Client message types.
const (
	ClientMessageTypeChat        = "chat"
	ClientMessageTypeAction      = "action"
	ClientMessageTypeSyncState   = "sync_state"
	ClientMessageTypeSyncSession = "sync_session"
)

// Server envelope types.
const (
	ServerTypeEvent   = "event"
	ServerTypeState   = "state"
	ServerTypeSession = "session"
	ServerTypeHint    = "hint"
	ServerTypeError   = "error"
)

// Server event names.
const (
	ServerEventChat           = "chat"
	ServerEventState          = "state"
	ServerEventSessionUpdated = "session_updated"
)

// MaxChatMessageLength is the maximum allowed length for a chat message.
const MaxChatMessageLength = 2000

// MaxClientMessageTypeLength limits the "type" field to prevent abuse.
const MaxClientMessageTypeLength = 64

// ValidClientMessageTypes are the only allowed values for ClientInMessage.Type.
var ValidClientMessageTypes = map[string]bool{
	ClientMessageTypeChat:        true,
	ClientMessageTypeAction:      true,
	ClientMessageTypeSyncState:   true,
	ClientMessageTypeSyncSession: true,
}
