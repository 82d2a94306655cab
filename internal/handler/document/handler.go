package document

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicbr/backoffice-api/internal/model"
	"github.com/clinicbr/backoffice-api/internal/service/document"
	"github.com/clinicbr/backoffice-api/pkg/httputil"
)

type Handler struct {
	service *document.Service
}

func NewHandler(service *document.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes nests documents under their patient.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patients/:id/documents", h.Create)
	r.GET("/patients/:id/documents", h.ListByPatient)

	documents := r.Group("/documents")
	{
		documents.GET("/:id", h.Get)
		documents.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid patient ID")
		return
	}

	var req model.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Create(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, doc)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid document ID")
		return
	}

	doc, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid patient ID")
		return
	}

	docs, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, docs)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithStatusError(c, http.StatusBadRequest, "invalid document ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "document deleted"})
}
