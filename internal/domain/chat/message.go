package chat

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one conversation turn. Conversations live in the browser and are
// replayed in full on every request; nothing here is persisted.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
