package assistant

import (
	"errors"
	"strings"

	"github.com/yungbote/kaical-backend/internal/domain/chat"
)

var (
	ErrEmptyConversation = errors.New("messages array is required and cannot be empty")
	ErrFinalTurnNotUser  = errors.New("invalid final message: must be a non-empty user message")
)

// SplitConversation separates the new user request from the prior turns and
// repairs those turns into a valid alternating history.
func SplitConversation(msgs []chat.Message) ([]chat.Message, chat.Message, error) {
	if len(msgs) == 0 {
		return nil, chat.Message{}, ErrEmptyConversation
	}
	last := msgs[len(msgs)-1]
	if last.Role != chat.RoleUser || strings.TrimSpace(last.Content) == "" {
		return nil, chat.Message{}, ErrFinalTurnNotUser
	}
	return SanitizeHistory(msgs[:len(msgs)-1]), last, nil
}

// SanitizeHistory returns a history that starts with a user turn and strictly
// alternates. Turns before the first user turn are discarded; any turn whose
// role does not match the expected one is dropped without advancing the
// expectation. Turns are never reordered or invented.
func SanitizeHistory(msgs []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(msgs))
	expect := chat.RoleUser
	for _, m := range msgs {
		if m.Role != expect {
			continue
		}
		out = append(out, m)
		if expect == chat.RoleUser {
			expect = chat.RoleAssistant
		} else {
			expect = chat.RoleUser
		}
	}
	return out
}
