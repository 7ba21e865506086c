package handlers

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
	"github.com/BruksfildServices01/salon-scheduler/internal/usecase/appointment"
	ucLoyalty "github.com/BruksfildServices01/salon-scheduler/internal/usecase/loyalty"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	repo         domain.Repository
	availability *appointment.GetAvailability
	book         *appointment.BookPublic
	register     *ucLoyalty.RegisterClient
}

func NewPublicHandler(
	repo domain.Repository,
	availability *appointment.GetAvailability,
	book *appointment.BookPublic,
	register *ucLoyalty.RegisterClient,
) *PublicHandler {
	return &PublicHandler{
		repo:         repo,
		availability: availability,
		book:         book,
		register:     register,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateAppointmentRequest struct {
	ClientName  string                         `json:"client_name" binding:"required"`
	ClientPhone string                         `json:"client_phone" binding:"required"`
	ClientEmail string                         `json:"client_email"`
	Services    []appointment.ServiceSelection `json:"services" binding:"required"`
	Date        string                         `json:"date" binding:"required"` // YYYY-MM-DD
	Time        string                         `json:"time" binding:"required"` // HH:mm
	Notes       string                         `json:"notes"`
}

type PublicSignupRequest struct {
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email"`
	Birthday     string `json:"birthday"` // YYYY-MM-DD
	ReferralCode string `json:"referral_code"`
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	category := strings.TrimSpace(strings.ToLower(c.Query("category")))

	services, err := h.repo.ListServices(c.Request.Context())
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	visible := slices.DeleteFunc(services, func(s models.Service) bool {
		return !s.Active || (category != "" && strings.ToLower(s.Category) != category)
	})

	c.JSON(http.StatusOK, gin.H{"services": visible})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

func (h *PublicHandler) Availability(c *gin.Context) {
	dateStr := c.Query("date")
	idsStr := c.Query("service_ids")

	if dateStr == "" || idsStr == "" {
		httperr.BadRequest(c, "missing_params", "Data e serviços obrigatórios.")
		return
	}

	date, err := timezone.ParseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	ids, err := parseIDList(idsStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_ids", "Serviços inválidos.")
		return
	}
	packages, err := parseIDList(c.Query("packages"))
	if err != nil {
		httperr.BadRequest(c, "invalid_packages", "Pacotes inválidos.")
		return
	}

	selection := make([]appointment.ServiceSelection, 0, len(ids))
	for _, id := range ids {
		selection = append(selection, appointment.ServiceSelection{
			ServiceID: id,
			Package:   slices.Contains(packages, id),
		})
	}

	slots, err := h.availability.Execute(c.Request.Context(), appointment.AvailabilityInput{
		Date:     date,
		Services: selection,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

////////////////////////////////////////////////////////
// CREATE APPOINTMENT
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateAppointment(c *gin.Context) {
	var req PublicCreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	date, start, ok := parseDateAndClock(c, req.Date, req.Time)
	if !ok {
		return
	}

	result, err := h.book.Execute(c.Request.Context(), appointment.BookPublicInput{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		Date:        date,
		StartMinute: start,
		Services:    req.Services,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeReservation(c, result)
}

////////////////////////////////////////////////////////
// SIGNUP
////////////////////////////////////////////////////////

func (h *PublicHandler) Signup(c *gin.Context) {
	var req PublicSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	var birthday *time.Time
	if req.Birthday != "" {
		b, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			httperr.BadRequest(c, "invalid_birthday", "Data de aniversário inválida.")
			return
		}
		birthday = &b
	}

	client, err := h.register.Execute(c.Request.Context(), ucLoyalty.RegisterClientInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Birthday:     birthday,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}
