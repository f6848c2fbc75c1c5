package models

// Turn is one inbound utterance from any channel.
// An empty ConversationID means the channel has no key of its own yet: the session is then
// stored under TokenKeyPrefix plus the returned token, and not at all when there is no token.
type Turn struct {
	ConversationID string
	TokenKeyPrefix string
	Utterance      string
	Token          string // Continuation token supplied by the caller, overrides the stored one
}

// Reply is what a channel renders back to the user.
type Reply struct {
	Text   string
	Token  string
	Intent Intent
}
