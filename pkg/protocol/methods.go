package protocol

// RPC method names.
const (
	MethodConnect  = "connect"
	MethodChatSend = "chat.send"
	MethodFAQMatch = "faq.match"
	MethodFAQList  = "faq.list"
	MethodPing     = "ping"
)

// ConnectParams is the payload of the connect handshake. It must be the
// first request on a connection.
type ConnectParams struct {
	Version int    `json:"version"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Client  string `json:"client,omitempty"`
}

// ConnectResult is returned on a successful handshake.
type ConnectResult struct {
	Version   int    `json:"version"`
	SessionID string `json:"sessionId"`
	Entries   int    `json:"entries"`
}

// ChatSendParams asks for a reply to one message.
type ChatSendParams struct {
	Message string `json:"message"`
}

// MatchParams asks for a ranking. Zero Threshold uses the server's
// configured threshold; zero Limit returns every entry.
type MatchParams struct {
	Query     string  `json:"query"`
	Threshold float64 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// CatalogReloadedPayload accompanies EventCatalogReloaded.
type CatalogReloadedPayload struct {
	Entries int `json:"entries"`
}
