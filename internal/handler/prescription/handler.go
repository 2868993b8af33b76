package prescription

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/middleware"
	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/service/prescription"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/httputil"
)

type Handler struct {
	svc  *prescription.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *prescription.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/prescriptions")
	{
		group.POST("", h.auth.RequireRoles(model.RoleDoctor), h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.auth.RequireRoles(model.RoleDoctor), h.Update)
		group.POST("/:id/cancel", h.auth.RequireRoles(model.RoleDoctor), h.Cancel)
		group.POST("/:id/fulfill", h.auth.RequireRoles(model.RolePharmacist), h.Fulfill)
	}
}

func (h *Handler) Create(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var req model.CreatePrescriptionRequest
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

func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	page.Normalize()

	prescriptions, total, err := h.svc.List(c.Request.Context(), caller, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, prescriptions, page.Page, page.Limit, total)
}

func (h *Handler) Get(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription ID"))
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) Update(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription ID"))
		return
	}

	var req model.UpdatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	detail, err := h.svc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) Cancel(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription ID"))
		return
	}

	p, err := h.svc.Cancel(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Fulfill(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription ID"))
		return
	}

	p, err := h.svc.Fulfill(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
