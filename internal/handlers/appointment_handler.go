package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
	"github.com/BruksfildServices01/salon-scheduler/internal/usecase/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/usecase/payment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	reserve  *appointment.CheckAndReserve
	complete *appointment.CompleteAppointment
	status   *appointment.ChangeStatus
	list     *appointment.ListAppointments

	recordPayment  *payment.RecordPayment
	reversePayment *payment.ReversePayment
}

func NewAppointmentHandler(
	reserve *appointment.CheckAndReserve,
	complete *appointment.CompleteAppointment,
	status *appointment.ChangeStatus,
	list *appointment.ListAppointments,
	recordPayment *payment.RecordPayment,
	reversePayment *payment.ReversePayment,
) *AppointmentHandler {
	return &AppointmentHandler{
		reserve:        reserve,
		complete:       complete,
		status:         status,
		list:           list,
		recordPayment:  recordPayment,
		reversePayment: reversePayment,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	ClientID uint                           `json:"client_id" binding:"required"`
	Date     string                         `json:"date" binding:"required"` // YYYY-MM-DD
	Time     string                         `json:"time" binding:"required"` // HH:mm
	Services []appointment.ServiceSelection `json:"services" binding:"required"`
	Notes    string                         `json:"notes"`
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" binding:"required"`
	DiscountIDs []uint          `json:"discount_ids"`

	ResetIndividual bool `json:"reset_individual"`
	ResetPackage    bool `json:"reset_package"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	date, start, ok := parseDateAndClock(c, req.Date, req.Time)
	if !ok {
		return
	}

	result, err := h.reserve.Execute(c.Request.Context(), appointment.ReserveInput{
		UserID:      staffID(c),
		ClientID:    req.ClientID,
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

// writeReservation answers 201 with the appointment, or 409 carrying the
// rejection reason and the suggested retry minute.
func writeReservation(c *gin.Context, result *appointment.ReserveResult) {
	if !result.Accepted {
		code := string(result.Reason)
		httperr.WriteMeta(c, http.StatusConflict, code, businessMessages[code], result.Decision().Meta())
		return
	}
	c.JSON(http.StatusCreated, result.Appointment)
}

func parseDateAndClock(c *gin.Context, dateStr, clock string) (date time.Time, minute int, ok bool) {
	d, err := timezone.ParseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Data ou hora inválida.")
		return date, 0, false
	}
	m, err := scheduling.ParseClock(clock)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Data ou hora inválida.")
		return date, 0, false
	}
	return d, m, true
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		dateStr = timezone.Now().Format("2006-01-02")
	}

	date, err := timezone.ParseDate(dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	appointments, err := h.list.ByDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":         dateStr,
		"appointments": appointments,
	})
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	yearStr := c.Query("year")
	monthStr := c.Query("month")

	if yearStr == "" || monthStr == "" {
		httperr.BadRequest(c, "missing_year_or_month", "Ano e mês são obrigatórios.")
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "Ano inválido.")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "Mês inválido.")
		return
	}

	appointments, err := h.list.ByMonth(c.Request.Context(), year, month)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": appointments,
	})
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.changeStatus(c, appointment.ActionConfirm)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.changeStatus(c, appointment.ActionCancel)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	h.changeStatus(c, appointment.ActionNoShow)
}

func (h *AppointmentHandler) changeStatus(c *gin.Context, action appointment.StatusAction) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.status.Execute(c.Request.Context(), staffID(c), id, action)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

// ======================================================
// COMPLETE
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), staffID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

// ======================================================
// PAYMENT
// ======================================================

func (h *AppointmentHandler) RecordPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, err := h.recordPayment.Execute(c.Request.Context(), payment.RecordInput{
		UserID:        staffID(c),
		AppointmentID: id,
		Amount:        req.Amount,
		Method:        req.Method,
		DiscountIDs:   req.DiscountIDs,
		Resets: loyalty.ResetFlags{
			Individual: req.ResetIndividual,
			Package:    req.ResetPackage,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}

func (h *AppointmentHandler) ReversePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ap, err := h.reversePayment.Execute(c.Request.Context(), staffID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ap)
}
