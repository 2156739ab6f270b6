package notification

// Real-time event names published on group channels. The socket gateway
// relays these verbatim to subscribed clients.
const (
	EventMemberJoined     = "member-joined"
	EventGroupReady       = "group-ready"
	EventMemberLeft       = "member-left"
	EventRequestCancelled = "request-cancelled"
	EventMemberCheckin    = "member-checkin"
	EventMemberCheckout   = "member-checkout"
	EventNewMessage       = "new-message"
)

// PushMessage is the Kafka payload for the async push fan-out. The consumer
// resolves each user's device token and dispatches over FCM.
type PushMessage struct {
	UserIDs []uint            `json:"user_ids"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}
