package discovery

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilink/pharmacare-api/internal/middleware"
	"github.com/medilink/pharmacare-api/internal/model"
	"github.com/medilink/pharmacare-api/internal/service/discovery"
	apperrors "github.com/medilink/pharmacare-api/pkg/errors"
	"github.com/medilink/pharmacare-api/pkg/httputil"
)

type Handler struct {
	svc  *discovery.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *discovery.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/pharmacies/search", h.SearchByLocation)
	r.GET("/prescriptions/:id/find-pharmacies", h.auth.RequireRoles(model.RolePatient), h.FindForPrescription)
}

// SearchByLocation finds pharmacies stocking one medicine near a point.
func (h *Handler) SearchByLocation(c *gin.Context) {
	var req model.SearchByLocationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	results, err := h.svc.SearchByLocation(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}

// FindForPrescription finds pharmacies stocking every medicine on the
// caller's prescription.
func (h *Handler) FindForPrescription(c *gin.Context) {
	caller, _ := middleware.PrincipalFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid prescription ID"))
		return
	}

	var req model.FindPharmaciesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error()))
		return
	}

	results, err := h.svc.FindForPrescription(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}
