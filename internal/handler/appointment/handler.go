package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/service/appointment"
	"github.com/clinicbr/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the appointment endpoints. The collection routes
// are scoped to the caller; managerialOnly gates the cross-profile reads.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, managerialOnly gin.HandlerFunc) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListForCaller)
		appointments.POST("", h.CreateForCaller)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.DELETE("/:id", h.Delete)
	}

	r.GET("/patients/:id/appointments", h.ListByPatient)
	r.GET("/profiles/:id/appointments", managerialOnly, h.ListByProfile)
}

// ListForCaller returns the appointments visible to the caller: all of
// them for managerial roles, only their own profile's otherwise.
func (h *Handler) ListForCaller(c *gin.Context) {
	appointments, err := h.service.ListForCaller(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) CreateForCaller(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	apt, err := h.service.CreateForCaller(c.Request.Context(), &req, c.GetHeader("Authorization"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	apt, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "appointment deleted"})
}

func (h *Handler) ListByProfile(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid profile ID")
		return
	}

	appointments, err := h.service.ListByProfile(c.Request.Context(), profileID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid patient ID")
		return
	}

	appointments, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}
