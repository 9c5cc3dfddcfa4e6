package core

// Conversation roles used throughout the message history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversational turn in a thread's history.
type Message struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// State is the unit of durability threaded through a workflow graph. One
// State exists per thread id; within a turn it is held by exactly one node
// at a time, so mutation helpers need no locking.
//
// History is append-only. Scope holds node-scoped scratch fields (refined
// prompt, draft artifact, review notes, ...) written by individual nodes via
// their returned delta; writes are field-replacing, never merged.
type State struct {
	LatestUserMessage string         `json:"latest_user_message"`
	History           []Message      `json:"history"`
	Scope             map[string]any `json:"scope"`
}

// NewState returns an empty state ready to receive the first user message.
func NewState() *State {
	return &State{Scope: map[string]any{}}
}

// SeedUserMessage records msg as the latest user input and appends it to the
// turn history. Called by the engine at the start of a turn and when a
// resumed human reply is injected.
func (s *State) SeedUserMessage(msg string) {
	s.LatestUserMessage = msg
	s.History = append(s.History, Message{Role: RoleUser, Content: msg})
}

// ApplyDelta replaces scope fields with the values from delta.
func (s *State) ApplyDelta(delta map[string]any) {
	if len(delta) == 0 {
		return
	}
	if s.Scope == nil {
		s.Scope = map[string]any{}
	}
	for k, v := range delta {
		s.Scope[k] = v
	}
}

// AppendHistory appends msgs to the turn history in order.
func (s *State) AppendHistory(msgs ...Message) {
	s.History = append(s.History, msgs...)
}

// Field returns the scope value for key and whether it is set.
func (s *State) Field(key string) (any, bool) {
	v, ok := s.Scope[key]
	return v, ok
}

// StringField returns the scope value for key as a string, or "" when the
// field is absent or not a string.
func (s *State) StringField(key string) string {
	if v, ok := s.Scope[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// UserTurns counts the user-authored messages in the history.
func (s *State) UserTurns() int {
	n := 0
	for _, m := range s.History {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe for independent mutation. Scope values are
// copied by reference; nodes must treat previously written values as
// immutable and replace fields wholesale.
func (s *State) Clone() *State {
	clone := &State{
		LatestUserMessage: s.LatestUserMessage,
		History:           make([]Message, len(s.History)),
		Scope:             make(map[string]any, len(s.Scope)),
	}
	copy(clone.History, s.History)
	for k, v := range s.Scope {
		clone.Scope[k] = v
	}
	return clone
}
