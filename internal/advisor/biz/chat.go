// Package biz implements the loan advisor business logic: product filtering,
// badges, grounding context and the AI chat orchestration.
package biz

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	"github.com/kart-io/loan-advisor/pkg/llm"
	"github.com/kart-io/loan-advisor/pkg/llm/resilience"
	errs "github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/validator"
)

const tracerName = "loan-advisor/biz"

// ChatState 对话请求在编排中的阶段。
type ChatState int

// Chat request states, in order.
const (
	ChatReceived ChatState = iota
	ChatValidated
	ChatProductResolved
	ChatContextBuilt
	ChatModelInvoked
	ChatReplied
	ChatFailed
)

var chatStateNames = [...]string{"received", "validated", "product_resolved", "context_built", "model_invoked", "replied", "failed"}

// String implements fmt.Stringer.
func (s ChatState) String() string {
	if int(s) < len(chatStateNames) {
		return chatStateNames[s]
	}
	return fmt.Sprintf("ChatState(%d)", int(s))
}

// Chat outcomes reported to the recorder.
const (
	OutcomeReplied         = "replied"
	OutcomeInvalid         = "invalid_request"
	OutcomeNotFound        = "not_found"
	OutcomeUnavailable     = "unavailable"
	OutcomeUpstreamFailure = "upstream_failure"
	OutcomeUnexpected      = "unexpected"
)

// ChatRecorder 记录对话结果，用于指标。
type ChatRecorder interface {
	ObserveChat(outcome string, duration time.Duration)
}

// ChatRequest 对话请求。
type ChatRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Message   string `json:"message" validate:"required,notblank"`
	History   []Turn `json:"history"`
}

// ChatResponse 对话响应，History 为调用方下一轮应回传的完整记录。
type ChatResponse struct {
	ProductID string `json:"productId"`
	Reply     string `json:"reply"`
	History   []Turn `json:"history"`
}

// ChatService orchestrates one grounded question about one product.
// 每个请求只调用一次模型，失败不重试。
type ChatService struct {
	catalog     store.Catalog
	provider    llm.ConversationProvider
	validator   *validator.Validator
	recorder    ChatRecorder
	development bool
}

// ChatOption configures a ChatService.
type ChatOption func(*ChatService)

// WithDevelopment 开发模式下 Unexpected 错误附带调用栈。
func WithDevelopment(dev bool) ChatOption {
	return func(s *ChatService) {
		s.development = dev
	}
}

// WithChatRecorder sets the outcome recorder.
func WithChatRecorder(r ChatRecorder) ChatOption {
	return func(s *ChatService) {
		s.recorder = r
	}
}

// WithValidator overrides the global validator.
func WithValidator(v *validator.Validator) ChatOption {
	return func(s *ChatService) {
		s.validator = v
	}
}

// NewChatService creates a ChatService. Pass an llm.UnavailableProvider when
// the model was not configured at startup; requests then fail with
// ServiceUnavailable after validation and product lookup.
func NewChatService(catalog store.Catalog, provider llm.ConversationProvider, opts ...ChatOption) *ChatService {
	if provider == nil {
		provider = llm.NewUnavailableProvider("none", llm.ErrNotConfigured)
	}
	s := &ChatService{
		catalog:   catalog,
		provider:  provider,
		validator: validator.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a chat model is configured.
func (s *ChatService) Available() bool {
	return llm.IsAvailable(s.provider)
}

// Ask answers req.Message about req.ProductID using only that product's data.
func (s *ChatService) Ask(ctx context.Context, req *ChatRequest) (resp *ChatResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ChatService.Ask")
	defer span.End()

	start := time.Now()
	state := ChatReceived
	log := logger.Global().WithCtx(ctx)

	advance := func(next ChatState) {
		log.Debugw("chat state changed", "from", state.String(), "to", next.String())
		state = next
	}

	defer func() {
		if r := recover(); r != nil {
			err = s.unexpected(fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			advance(ChatFailed)
			tracing.RecordError(ctx, err)
		} else {
			advance(ChatReplied)
			tracing.SetSpanOK(ctx)
		}
		if s.recorder != nil {
			s.recorder.ObserveChat(outcomeOf(err), time.Since(start))
		}
	}()

	// 1. 校验请求
	if err := s.validate(req); err != nil {
		return nil, err
	}
	advance(ChatValidated)
	tracing.AddSpanAttributes(ctx,
		attribute.String("product.id", req.ProductID),
		attribute.Int("chat.history_len", len(req.History)),
	)

	// 2. 查询产品
	product, err := s.catalog.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, errs.ErrLoanProductNotFound.WithMessagef("product %s not found", req.ProductID)
		}
		return nil, s.unexpected(err)
	}
	advance(ChatProductResolved)

	// 3. 生成接地上下文
	instruction, err := BuildGroundingContext(product)
	if err != nil {
		return nil, s.unexpected(err)
	}
	advance(ChatContextBuilt)

	// 4. 调用模型
	if u, ok := s.provider.(*llm.UnavailableProvider); ok {
		return nil, errs.ErrLoanServiceUnavailable.WithCause(u.Cause())
	}
	reply, err := s.provider.Converse(ctx, &llm.ConversationRequest{
		SystemInstruction: instruction,
		History:           NormalizeHistory(req.History),
		Input:             req.Message,
	})
	advance(ChatModelInvoked)
	if err != nil {
		return nil, s.mapProviderError(err)
	}

	log.Infow("chat answered", "product_id", req.ProductID, "provider", s.provider.Name(), "reply_len", len(reply))
	return &ChatResponse{
		ProductID: req.ProductID,
		Reply:     reply,
		History:   AppendExchange(req.History, req.Message, reply),
	}, nil
}

func (s *ChatService) validate(req *ChatRequest) error {
	if req == nil {
		return errs.ErrLoanInvalidRequest.WithMessage("request body is required")
	}
	verrs := s.validator.ValidateWithLang(req, validator.LangEN)
	var turnErr *TurnError
	if err := ValidateTurns(req.History); errors.As(err, &turnErr) {
		if verrs == nil {
			verrs = validator.NewValidationErrors()
		}
		verrs.AppendError(validator.FieldError{
			Field:   turnErr.Path(),
			Tag:     turnErr.Tag,
			Message: turnErr.Error(),
		})
	}
	if verrs.HasErrors() {
		return errs.ErrLoanInvalidRequest.WithMessage(verrs.First()).WithDetails(verrs)
	}
	return nil
}

func (s *ChatService) mapProviderError(err error) error {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return errs.ErrLoanServiceUnavailable.WithCause(err)
	case errors.Is(err, resilience.ErrCircuitBreakerOpen):
		return errs.ErrLoanUpstreamFailure.WithMessage("AI backend temporarily unavailable").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.ErrLoanUpstreamFailure.WithMessage("AI backend request timed out").WithCause(err)
	default:
		return errs.ErrLoanUpstreamFailure.WithMessage(err.Error()).WithCause(err)
	}
}

// unexpectedDetails Unexpected 错误的响应数据。
type unexpectedDetails struct {
	Details string `json:"details"`
	Stack   string `json:"stack,omitempty"`
}

func (s *ChatService) unexpected(err error) error {
	d := unexpectedDetails{Details: err.Error()}
	if s.development {
		d.Stack = string(debug.Stack())
	}
	return errs.ErrLoanUnexpected.WithCause(err).WithDetails(d)
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeReplied
	}
	switch errs.GetCode(err) {
	case errs.ErrLoanInvalidRequest.Code:
		return OutcomeInvalid
	case errs.ErrLoanProductNotFound.Code:
		return OutcomeNotFound
	case errs.ErrLoanServiceUnavailable.Code:
		return OutcomeUnavailable
	case errs.ErrLoanUpstreamFailure.Code:
		return OutcomeUpstreamFailure
	default:
		return OutcomeUnexpected
	}
}
