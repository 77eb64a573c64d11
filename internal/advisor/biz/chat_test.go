package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/internal/model"
	"github.com/kart-io/loan-advisor/pkg/llm"
	"github.com/kart-io/loan-advisor/pkg/llm/resilience"
	errs "github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/validator"
)

const testProductID = "7d0e5f4a-3b2c-4d1e-8f9a-0b1c2d3e4f50"

type fakeCatalog struct {
	products []*model.LoanProduct
	err      error
	lookups  int
}

func (f *fakeCatalog) ListAll(context.Context) ([]*model.LoanProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*model.LoanProduct, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, store.ErrProductNotFound
}

type fakeProvider struct {
	reply string
	err   error
	calls int
	last  *llm.ConversationRequest
}

func (f *fakeProvider) Converse(_ context.Context, req *llm.ConversationRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *fakeRecorder) ObserveChat(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func testCatalog() *fakeCatalog {
	p := product("Green Auto", "Maple Credit Union", 10.5, 25000, 650)
	p.ID = testProductID
	return &fakeCatalog{products: []*model.LoanProduct{p}}
}

func TestAskSuccess(t *testing.T) {
	catalog := testCatalog()
	provider := &fakeProvider{reply: "The APR is 10.5%."}
	rec := &fakeRecorder{}
	svc := NewChatService(catalog, provider, WithChatRecorder(rec))

	prior := []Turn{
		{Role: "assistant", Content: "Hi! Ask me anything."},
		{Role: "user", Content: "Who offers this?"},
		{Role: "assistant", Content: "Maple Credit Union."},
	}
	resp, err := svc.Ask(context.Background(), &ChatRequest{
		ProductID: testProductID,
		Message:   "What is the APR?",
		History:   prior,
	})
	require.NoError(t, err)

	assert.Equal(t, testProductID, resp.ProductID)
	assert.Equal(t, "The APR is 10.5%.", resp.Reply)
	assert.Equal(t, append(append([]Turn{}, prior...),
		Turn{Role: "user", Content: "What is the APR?"},
		Turn{Role: "assistant", Content: "The APR is 10.5%."},
	), resp.History)
	assert.Len(t, prior, 3)

	require.Equal(t, 1, provider.calls)
	assert.Equal(t, "What is the APR?", provider.last.Input)
	assert.Contains(t, provider.last.SystemInstruction, "Product Name: Green Auto")
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "Who offers this?"},
		{Role: llm.RoleModel, Content: "Maple Credit Union."},
	}, provider.last.History)
	assert.Equal(t, []string{OutcomeReplied}, rec.outcomes)
}

func TestAskFailures(t *testing.T) {
	tests := []struct {
		name        string
		req         *ChatRequest
		catalogErr  error
		provider    llm.ConversationProvider
		wantErr     *errs.Errno
		wantLookups int
		wantCalls   int
		wantOutcome string
	}{
		{
			name:        "nil request",
			req:         nil,
			wantErr:     errs.ErrLoanInvalidRequest,
			wantOutcome: OutcomeInvalid,
		},
		{
			name:        "empty message",
			req:         &ChatRequest{ProductID: testProductID, Message: ""},
			wantErr:     errs.ErrLoanInvalidRequest,
			wantOutcome: OutcomeInvalid,
		},
		{
			name:        "blank message",
			req:         &ChatRequest{ProductID: testProductID, Message: " \t "},
			wantErr:     errs.ErrLoanInvalidRequest,
			wantOutcome: OutcomeInvalid,
		},
		{
			name:        "product id not a uuid",
			req:         &ChatRequest{ProductID: "abc", Message: "hi"},
			wantErr:     errs.ErrLoanInvalidRequest,
			wantOutcome: OutcomeInvalid,
		},
		{
			name: "bad history role",
			req: &ChatRequest{ProductID: testProductID, Message: "hi", History: []Turn{
				{Role: "system", Content: "x"},
			}},
			wantErr:     errs.ErrLoanInvalidRequest,
			wantOutcome: OutcomeInvalid,
		},
		{
			name:        "unknown product",
			req:         &ChatRequest{ProductID: "00000000-0000-4000-8000-000000000000", Message: "hi"},
			wantErr:     errs.ErrLoanProductNotFound,
			wantLookups: 1,
			wantOutcome: OutcomeNotFound,
		},
		{
			name:        "catalog failure",
			req:         &ChatRequest{ProductID: testProductID, Message: "hi"},
			catalogErr:  errors.New("db down"),
			wantErr:     errs.ErrLoanUnexpected,
			wantLookups: 1,
			wantOutcome: OutcomeUnexpected,
		},
		{
			name:        "model not configured",
			req:         &ChatRequest{ProductID: testProductID, Message: "hi"},
			provider:    llm.NewUnavailableProvider("gemini", fmt.Errorf("gemini: %w", llm.ErrNotConfigured)),
			wantErr:     errs.ErrLoanServiceUnavailable,
			wantLookups: 1,
			wantOutcome: OutcomeUnavailable,
		},
		{
			name:        "backend error",
			req:         &ChatRequest{ProductID: testProductID, Message: "hi"},
			provider:    &fakeProvider{err: errors.New("gemini: status 429: quota exceeded")},
			wantErr:     errs.ErrLoanUpstreamFailure,
			wantLookups: 1,
			wantCalls:   1,
			wantOutcome: OutcomeUpstreamFailure,
		},
		{
			name:        "empty reply",
			req:         &ChatRequest{ProductID: testProductID, Message: "hi"},
			provider:    &fakeProvider{err: llm.ErrEmptyReply},
			wantErr:     errs.ErrLoanUpstreamFailure,
			wantLookups: 1,
			wantCalls:   1,
			wantOutcome: OutcomeUpstreamFailure,
		},
		{
			name:        "circuit open",
			req:         &ChatRequest{ProductID: testProductID, Message: "hi"},
			provider:    &fakeProvider{err: resilience.ErrCircuitBreakerOpen},
			wantErr:     errs.ErrLoanUpstreamFailure,
			wantLookups: 1,
			wantCalls:   1,
			wantOutcome: OutcomeUpstreamFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			catalog.err = tt.catalogErr
			provider := tt.provider
			if provider == nil {
				provider = &fakeProvider{reply: "unused"}
			}
			rec := &fakeRecorder{}
			svc := NewChatService(catalog, provider, WithChatRecorder(rec))

			resp, err := svc.Ask(context.Background(), tt.req)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantLookups, catalog.lookups)
			if fp, ok := provider.(*fakeProvider); ok {
				assert.Equal(t, tt.wantCalls, fp.calls, "no retries")
			}
			assert.Equal(t, []string{tt.wantOutcome}, rec.outcomes)
		})
	}
}

func TestAskInvalidRequestDetails(t *testing.T) {
	svc := NewChatService(testCatalog(), &fakeProvider{})
	_, err := svc.Ask(context.Background(), &ChatRequest{
		ProductID: testProductID,
		Message:   "hi",
		History:   []Turn{{Role: "user", Content: "ok"}, {Role: "assistant", Content: ""}},
	})

	e := errs.FromError(err)
	require.NotNil(t, e)
	details, ok := e.Details().(*validator.ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, "history[1].content", details.FirstField())
}

func TestAskHistoryCheckedWithRequestFields(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	svc := NewChatService(testCatalog(), provider)
	_, err := svc.Ask(context.Background(), &ChatRequest{
		ProductID: testProductID,
		Message:   "  ",
		History:   []Turn{{Role: "system", Content: "x"}},
	})

	require.ErrorIs(t, err, errs.ErrLoanInvalidRequest)
	details, ok := errs.FromError(err).Details().(*validator.ValidationErrors)
	require.True(t, ok)
	require.Equal(t, 2, details.Count())
	assert.Equal(t, "history[0].role", details.Errors[1].Field)
	assert.Equal(t, "oneof", details.Errors[1].Tag)
	assert.Zero(t, provider.calls)
}

func TestAskUpstreamMessagePreserved(t *testing.T) {
	svc := NewChatService(testCatalog(), &fakeProvider{err: errors.New("gemini: status 400: API key not valid")})
	_, err := svc.Ask(context.Background(), &ChatRequest{ProductID: testProductID, Message: "hi"})
	assert.Contains(t, errs.FromError(err).Message(""), "API key not valid")
}

func TestAskUnexpectedStackOnlyInDevelopment(t *testing.T) {
	for _, dev := range []bool{false, true} {
		t.Run(fmt.Sprintf("dev=%v", dev), func(t *testing.T) {
			catalog := testCatalog()
			catalog.err = errors.New("db down")
			svc := NewChatService(catalog, &fakeProvider{}, WithDevelopment(dev))

			_, err := svc.Ask(context.Background(), &ChatRequest{ProductID: testProductID, Message: "hi"})
			details, ok := errs.FromError(err).Details().(unexpectedDetails)
			require.True(t, ok)
			assert.Equal(t, "db down", details.Details)
			assert.Equal(t, dev, details.Stack != "")
		})
	}
}

func TestNilProviderIsUnavailable(t *testing.T) {
	svc := NewChatService(testCatalog(), nil)
	assert.False(t, svc.Available())
	_, err := svc.Ask(context.Background(), &ChatRequest{ProductID: testProductID, Message: "hi"})
	assert.ErrorIs(t, err, errs.ErrLoanServiceUnavailable)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestChatStateString(t *testing.T) {
	assert.Equal(t, "received", ChatReceived.String())
	assert.Equal(t, "failed", ChatFailed.String())
	assert.Equal(t, "ChatState(42)", ChatState(42).String())
}
