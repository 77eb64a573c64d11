// Package handler provides the HTTP handlers of the loan advisor API.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/loan-advisor/internal/advisor/biz"
	"github.com/kart-io/loan-advisor/internal/pkg/httputils"
	"github.com/kart-io/loan-advisor/pkg/utils/errors"
	"github.com/kart-io/loan-advisor/pkg/utils/validator"
)

// ProductHandler handles catalog requests.
type ProductHandler struct {
	svc *biz.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc *biz.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// ListProductsRequest 列表查询参数，未出现的参数取默认值（不过滤）。
type ListProductsRequest struct {
	biz.FilterCriteria
	// BadgeLimit 每个产品返回的徽章数量上限，0 表示全部。
	BadgeLimit int `form:"badge_limit" json:"badge_limit" validate:"min=0,max=7"`
}

// ListProductsResponse is the body of GET /v1/products.
type ListProductsResponse struct {
	Criteria biz.FilterCriteria `json:"criteria"`
	Total    int                `json:"total"`
	Products []*biz.ProductView `json:"products"`
}

// List handles GET /v1/products.
func (h *ProductHandler) List(c *gin.Context) {
	req := ListProductsRequest{FilterCriteria: biz.DefaultCriteria()}
	// 绑定时由 validator.NewGinValidator 执行 validate 标签，NaN/Inf 在此被拒绝
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	criteria := req.Normalize()
	products, err := h.svc.List(c.Request.Context(), criteria)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if req.BadgeLimit > 0 {
		for _, p := range products {
			p.Badges = biz.TopBadges(p.Badges, req.BadgeLimit)
		}
	}

	httputils.WriteResponse(c, nil, &ListProductsResponse{
		Criteria: criteria,
		Total:    len(products),
		Products: products,
	})
}

// Featured handles GET /v1/products/featured.
func (h *ProductHandler) Featured(c *gin.Context) {
	featured, err := h.svc.Featured(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if featured.BestMatch != nil {
		featured.BestMatch.Badges = biz.TopBadges(featured.BestMatch.Badges, biz.DashboardBadgeLimit)
	}
	for _, p := range featured.Others {
		p.Badges = biz.TopBadges(p.Badges, biz.DashboardBadgeLimit)
	}
	httputils.WriteResponse(c, nil, featured)
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validator.Global().ValidateVar(id, "required,uuid"); err != nil {
		httputils.WriteResponse(c, errors.ErrLoanProductNotFound.WithMessagef("product %s not found", id), nil)
		return
	}

	product, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, product)
}

// FilterDefaults handles GET /v1/filters/defaults.
func (h *ProductHandler) FilterDefaults(c *gin.Context) {
	httputils.WriteResponse(c, nil, biz.DefaultFilterContract())
}

// writeBindError 将绑定错误写为 InvalidRequest，校验错误附带翻译后的字段详情。
func writeBindError(c *gin.Context, err error) {
	if verrs := validator.Global().Translate(err, lang(c)); verrs != nil {
		httputils.WriteResponse(c, errors.ErrLoanInvalidRequest.WithMessage(verrs.First()).WithDetails(verrs), nil)
		return
	}
	httputils.WriteResponse(c, errors.ErrLoanInvalidRequest.WithMessage(err.Error()), nil)
}

// lang 取 Accept-Language 的首选语言，用于校验错误的翻译。
func lang(c *gin.Context) string {
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), validator.LangZH) {
		return validator.LangZH
	}
	return validator.LangEN
}
