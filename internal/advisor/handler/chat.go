package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/loan-advisor/internal/advisor/biz"
	"github.com/kart-io/loan-advisor/internal/pkg/httputils"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

// maxChatBodyBytes 对话请求体上限，包含调用方回传的完整历史。
const maxChatBodyBytes = 1 << 20

// ChatHandler handles the grounded product chat.
type ChatHandler struct {
	svc *biz.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *biz.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Ask handles POST /v1/ai/ask.
// 请求体只做 JSON 解码，字段校验由 ChatService 完成。
func (h *ChatHandler) Ask(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxChatBodyBytes)

	var req biz.ChatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if stderrors.Is(err, io.EOF) {
			httputils.WriteResponse(c, errors.ErrLoanInvalidRequest.WithMessage("request body is required"), nil)
			return
		}
		httputils.WriteResponse(c, errors.ErrLoanInvalidRequest.WithMessage("malformed JSON body").WithCause(err), nil)
		return
	}

	resp, err := h.svc.Ask(c.Request.Context(), &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, resp)
}

// Status handles GET /v1/ai/status.
func (h *ChatHandler) Status(c *gin.Context) {
	httputils.WriteResponse(c, nil, gin.H{"available": h.svc.Available()})
}
