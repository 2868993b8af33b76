package claim

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/middleware"
	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/service/claim"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/httputil"
)

type Handler struct {
	svc  *claim.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *claim.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	claims := r.Group("/claims")
	{
		claims.POST("/generate-report", h.auth.RequireRoles(model.RolePharmacist), h.GenerateReport)

		insurer := claims.Group("", h.auth.RequireRoles(model.RoleInsurer))
		{
			insurer.GET("", h.ListReports)
			insurer.GET("/:id", h.GetReport)
			insurer.PATCH("/:id/status", h.UpdateReportStatus)
		}
	}

	r.PATCH("/claim-items/:id/adjudicate", h.auth.RequireRoles(model.RoleInsurer), h.AdjudicateItem)

	network := r.Group("/network", h.auth.RequireRoles(model.RoleInsurer))
	{
		network.POST("/pharmacies", h.AddNetworkPharmacy)
		network.DELETE("/pharmacies/:id", h.RemoveNetworkPharmacy)
	}

	coverage := r.Group("/coverage", h.auth.RequireRoles(model.RoleInsurer))
	{
		coverage.POST("/patients", h.AddPatientCoverage)
		coverage.DELETE("/patients/:id", h.RemovePatientCoverage)
	}
}

func (h *Handler) GenerateReport(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var req model.GenerateClaimReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	report, err := h.svc.GenerateReport(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) ListReports(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}
	page.Normalize()

	var filters model.ClaimFilters
	if raw := c.Query("pharmacy_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid pharmacy ID"))
			return
		}
		filters.PharmacyID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := model.ClaimReportStatus(raw)
		if !status.Valid() {
			httputil.RespondWithError(c, apperrors.BadRequestf("unknown claim status: %s", raw))
			return
		}
		filters.Status = &status
	}

	reports, total, err := h.svc.ListReports(c.Request.Context(), caller, filters, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, reports, page.Page, page.Limit, total)
}

func (h *Handler) GetReport(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid report ID"))
		return
	}

	detail, err := h.svc.GetReport(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdateReportStatus(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid report ID"))
		return
	}

	var req model.UpdateClaimStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	detail, err := h.svc.UpdateReportStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) AdjudicateItem(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid claim item ID"))
		return
	}

	var req model.AdjudicateClaimItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	item, err := h.svc.AdjudicateItem(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, item)
}

func (h *Handler) AddNetworkPharmacy(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var req model.AddNetworkPharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	agreement, err := h.svc.AddNetworkPharmacy(c.Request.Context(), caller, req.PharmacyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, agreement)
}

func (h *Handler) RemoveNetworkPharmacy(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid pharmacy ID"))
		return
	}

	if err := h.svc.RemoveNetworkPharmacy(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}

func (h *Handler) AddPatientCoverage(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	var req model.AddPatientCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	if err := h.svc.AddPatientCoverage(c.Request.Context(), caller, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"patient_id": req.PatientID})
}

func (h *Handler) RemovePatientCoverage(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID"))
		return
	}

	if err := h.svc.RemovePatientCoverage(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"removed": true})
}
