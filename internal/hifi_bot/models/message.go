package models

// Роли сообщений в истории диалога
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a locally kept assistant thread.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
