package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/loan-advisor/pkg/llm"
	"github.com/kart-io/loan-advisor/pkg/utils/validator"
)

// Caller-facing turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 调用方持有的一轮对话记录。
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnError describes the first invalid turn in a history.
// Tag 与校验器的规则名一致（oneof、notblank），便于统一输出错误详情。
type TurnError struct {
	Index  int
	Field  string
	Tag    string
	Reason string
}

// Error implements error.
func (e *TurnError) Error() string {
	return e.Path() + " " + e.Reason
}

// Path returns the field path of the invalid value, e.g. history[1].role.
func (e *TurnError) Path() string {
	return fmt.Sprintf("history[%d].%s", e.Index, e.Field)
}

// ValidateTurns checks every turn's role and content.
func ValidateTurns(turns []Turn) error {
	for i, t := range turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return &TurnError{Index: i, Field: "role", Tag: "oneof", Reason: "must be one of [user assistant]"}
		}
		if strings.TrimSpace(t.Content) == "" {
			return &TurnError{Index: i, Field: "content", Tag: validator.TagNotBlank, Reason: "must not be blank"}
		}
	}
	return nil
}

// NormalizeHistory maps caller turns to the backend's user/model roles.
// 后端要求历史以 user 开头，若首条不是 user 则丢弃这一条。
func NormalizeHistory(turns []Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleModel
		if t.Role == RoleUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	if len(msgs) > 0 && msgs[0].Role != llm.RoleUser {
		msgs = msgs[1:]
	}
	return msgs
}

// AppendExchange returns a new history: prior, the user message, then the reply.
// prior is never modified or aliased.
func AppendExchange(prior []Turn, userMessage, reply string) []Turn {
	out := make([]Turn, 0, len(prior)+2)
	out = append(out, prior...)
	return append(out,
		Turn{Role: RoleUser, Content: userMessage},
		Turn{Role: RoleAssistant, Content: reply},
	)
}
