package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation.
	StateIdle State = "idle"
)

// Conversation keys one ongoing exchange: the same user talking in two
// different chats holds two independent sessions.
type Conversation struct {
	UserID int64
	ChatID int64
}

// ConversationOf derives the conversation key from an incoming update.
func ConversationOf(c tele.Context) Conversation {
	conv := Conversation{}
	if u := c.Sender(); u != nil {
		conv.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		conv.ChatID = ch.ID
	}
	return conv
}

// Session stores the FSM state and the accumulated payload of one conversation.
type Session[T any] struct {
	State State `json:"state"`
	Data  *T    `json:"data,omitempty"`
}

// Manager orchestrates conversation sessions and FSM state transitions.
// Update is the only mutation path; implementations guarantee that the
// load-mutate-store cycle is atomic with respect to other events for the
// same conversation key.
type Manager[T any] interface {
	// Snapshot returns a copy of the session, or an idle session if none exists.
	Snapshot(conv Conversation) (Session[T], error)
	// Update applies fn to the session under a per-key lock, creating the
	// session first if necessary, and stores the result.
	Update(conv Conversation, fn func(*Session[T])) error
	// SetState changes only the FSM state of the conversation.
	SetState(conv Conversation, st State) error
	// StateOf reports the current FSM state, or StateIdle when absent or
	// when the backend cannot be reached.
	StateOf(conv Conversation) State
	// Clear removes the session entirely.
	Clear(conv Conversation) error
	// InProgress reports whether the conversation holds a non-idle state.
	InProgress(conv Conversation) bool
}
