package order

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/middleware"
	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/service/order"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/httputil"
)

type Handler struct {
	svc  *order.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *order.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders", h.auth.RequireRoles(model.RolePatient))
	{
		orders.POST("", h.Create)
		orders.GET("", h.ListMine)
		orders.GET("/:id", h.GetMine)
	}

	pharmacy := r.Group("/pharmacy/orders", h.auth.RequireRoles(model.RolePharmacist))
	{
		pharmacy.GET("", h.ListPharmacyOrders)
		pharmacy.GET("/:id", h.GetPharmacyOrder)
		pharmacy.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	detail, err := h.svc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, detail)
}

func (h *Handler) ListMine(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	page.Normalize()

	orders, total, err := h.svc.ListMine(c.Request.Context(), caller, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, orders, page.Page, page.Limit, total)
}

func (h *Handler) GetMine(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order ID"))
		return
	}

	detail, err := h.svc.GetMine(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) ListPharmacyOrders(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	page.Normalize()

	orders, total, err := h.svc.ListPharmacyOrders(c.Request.Context(), caller, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, orders, page.Page, page.Limit, total)
}

func (h *Handler) GetPharmacyOrder(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order ID"))
		return
	}

	detail, err := h.svc.GetPharmacyOrder(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid order ID"))
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	o, err := h.svc.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, o)
}
