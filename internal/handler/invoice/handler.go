package invoice

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/service/invoice"
	"github.com/clinicbr/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *invoice.Service
}

func NewHandler(service *invoice.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the invoice endpoints. lifecycleGuard runs before
// the issue and cancel transitions; the router uses it to re-check the
// caller's role against the database rather than the token.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, lifecycleGuard gin.HandlerFunc) {
	invoices := r.Group("/invoices")
	{
		invoices.POST("/generate", h.Generate)
		invoices.POST("", h.CreateStandalone)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.DELETE("/:id", h.Delete)

		invoices.POST("/:id/issue", lifecycleGuard, h.Issue)
		invoices.POST("/:id/cancel", lifecycleGuard, h.Cancel)
	}
}

// Generate bills every performed, not-yet-billed appointment in the
// requested period as one draft invoice.
func (h *Handler) Generate(c *gin.Context) {
	var req model.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.PeriodEnd.Before(req.PeriodStart) {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "period_end precedes period_start")
		return
	}

	inv, err := h.service.GenerateForPeriod(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, invoice.ErrNothingToBill) {
			httputil.RespondWithStatusError(c, http.StatusBadRequest, "no billable appointments in period")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, inv)
}

func (h *Handler) CreateStandalone(c *gin.Context) {
	var req model.CreateStandaloneInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := h.service.CreateStandalone(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, inv)
}

// List returns all invoices, optionally filtered by profile_id or by a
// start/end period (RFC 3339 timestamps).
func (h *Handler) List(c *gin.Context) {
	if profileID := c.Query("profile_id"); profileID != "" {
		id, err := uuid.Parse(profileID)
		if err != nil {
			httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid profile ID")
			return
		}
		invoices, err := h.service.ListByProfile(c.Request.Context(), id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, invoices)
		return
	}

	if startStr, endStr := c.Query("start"), c.Query("end"); startStr != "" || endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid start timestamp")
			return
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid end timestamp")
			return
		}
		invoices, err := h.service.ListByPeriod(c.Request.Context(), start, end)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, invoices)
		return
	}

	invoices, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoices)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	inv, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Issue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	inv, err := h.service.Issue(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotIssuable) {
			httputil.RespondWithStatusError(c, http.StatusConflict, "invoice cannot be issued")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	inv, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotCancellable) {
			httputil.RespondWithStatusError(c, http.StatusConflict, "invoice cannot be cancelled")
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "invoice deleted"})
}
