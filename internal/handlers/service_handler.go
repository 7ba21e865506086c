package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type ServiceHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewServiceHandler(repo domain.Repository, audit *audit.Dispatcher) *ServiceHandler {
	return &ServiceHandler{repo: repo, audit: audit}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	DurationMin  int              `json:"duration_min" binding:"required,min=1"`
	Price        decimal.Decimal  `json:"price"`
	PackagePrice *decimal.Decimal `json:"package_price,omitempty"`
}

type UpdateServiceRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty"`
	DurationMin  *int             `json:"duration_min,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	PackagePrice *decimal.Decimal `json:"package_price,omitempty"`
	Active       *bool            `json:"active,omitempty"`
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.repo.ListServices(c.Request.Context())
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	httpresp.List(c, services)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}
	if req.Price.IsNegative() || (req.PackagePrice != nil && req.PackagePrice.IsNegative()) {
		httperr.BadRequest(c, "invalid_price", "Preço inválido.")
		return
	}

	service := models.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		DurationMin: req.DurationMin,
		Price:       req.Price,
		Active:      true,
	}
	if req.PackagePrice != nil {
		service.PackagePrice = decimal.NewNullDecimal(*req.PackagePrice)
	}

	if err := h.repo.CreateService(c.Request.Context(), &service); err != nil {
		httperr.Internal(c, "failed_to_create_service", "Erro ao criar serviço.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   staffID(c),
		Action:   "service_created",
		Entity:   "service",
		EntityID: &service.ID,
	})

	c.JSON(http.StatusCreated, service)
}

// Update changes catalog data only. Durations of existing bookings follow the
// catalog on the next slot check.
func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	service, err := h.repo.GetService(c.Request.Context(), id)
	if err != nil {
		if httperr.IsNotFound(err) {
			writeError(c, httperr.ErrBusiness(httperr.CodeServiceNotFound))
			return
		}
		writeError(c, err)
		return
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Category != nil {
		service.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.DurationMin != nil {
		if *req.DurationMin <= 0 {
			httperr.BadRequest(c, "invalid_duration", "Duração inválida.")
			return
		}
		service.DurationMin = *req.DurationMin
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			httperr.BadRequest(c, "invalid_price", "Preço inválido.")
			return
		}
		service.Price = *req.Price
	}
	if req.PackagePrice != nil {
		service.PackagePrice = decimal.NewNullDecimal(*req.PackagePrice)
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.repo.UpdateService(c.Request.Context(), service); err != nil {
		httperr.Internal(c, "failed_to_update_service", "Erro ao atualizar serviço.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   staffID(c),
		Action:   "service_updated",
		Entity:   "service",
		EntityID: &service.ID,
	})

	c.JSON(http.StatusOK, service)
}
