package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

type WorkingHoursHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(repo domain.Repository, audit *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{repo: repo, audit: audit}
}

type WorkingDayConfig struct {
	Weekday    int    `json:"weekday" binding:"min=0,max=6"`
	Active     bool   `json:"active"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

type BlockedSlotRequest struct {
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime string `json:"start_time"`              // vazio = dia inteiro
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

// validRange accepts an ordered "HH:MM" pair.
func validRange(from, to string) bool {
	start, err := scheduling.ParseClock(from)
	if err != nil {
		return false
	}
	end, err := scheduling.ParseClock(to)
	if err != nil {
		return false
	}
	return start < end
}

// ======================================================
// WORKING HOURS
// ======================================================

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	hours, err := h.repo.ListWorkingHours(c.Request.Context())
	if err != nil {
		httperr.Internal(c, "failed_to_get_working_hours", "Erro ao carregar horários.")
		return
	}

	c.JSON(http.StatusOK, hours)
}

func (h *WorkingHoursHandler) Update(c *gin.Context) {
	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	seen := map[int]bool{}
	toSave := make([]models.WorkingHours, 0, len(req.Days))

	for _, d := range req.Days {
		if seen[d.Weekday] {
			httperr.BadRequest(c, "duplicate_weekday", "Dia da semana repetido.")
			return
		}
		seen[d.Weekday] = true

		if d.Active && !validRange(d.StartTime, d.EndTime) {
			httperr.BadRequest(c, "invalid_working_hours", "Horário de atendimento inválido.")
			return
		}
		if (d.LunchStart != "" || d.LunchEnd != "") && !validRange(d.LunchStart, d.LunchEnd) {
			httperr.BadRequest(c, "invalid_lunch", "Horário de almoço inválido.")
			return
		}

		toSave = append(toSave, models.WorkingHours{
			Weekday:    d.Weekday,
			Active:     d.Active,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
		})
	}

	if err := h.repo.ReplaceWorkingHours(c.Request.Context(), toSave); err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Erro ao salvar horários.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   staffID(c),
		Action:   "working_hours_updated",
		Entity:   "working_hours",
		Metadata: map[string]any{"days": len(toSave)},
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ======================================================
// BLOCKED SLOTS
// ======================================================

func (h *WorkingHoursHandler) ListBlocked(c *gin.Context) {
	date, err := timezone.ParseDate(c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	blocks, err := h.repo.ListBlockedSlots(c.Request.Context(), date)
	if err != nil {
		httperr.Internal(c, "failed_to_list_blocked_slots", "Erro ao listar bloqueios.")
		return
	}

	c.JSON(http.StatusOK, blocks)
}

func (h *WorkingHoursHandler) CreateBlocked(c *gin.Context) {
	var req BlockedSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	date, err := timezone.ParseDate(req.Date)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	fullDay := req.StartTime == "" && req.EndTime == ""
	if !fullDay && !validRange(req.StartTime, req.EndTime) {
		httperr.BadRequest(c, "invalid_range", "Intervalo inválido.")
		return
	}

	block := models.BlockedSlot{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}

	if err := h.repo.CreateBlockedSlot(c.Request.Context(), &block); err != nil {
		httperr.Internal(c, "failed_to_create_blocked_slot", "Erro ao criar bloqueio.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   staffID(c),
		Action:   "blocked_slot_created",
		Entity:   "blocked_slot",
		EntityID: &block.ID,
	})

	c.JSON(http.StatusCreated, block)
}

func (h *WorkingHoursHandler) DeleteBlocked(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteBlockedSlot(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   staffID(c),
		Action:   "blocked_slot_deleted",
		Entity:   "blocked_slot",
		EntityID: &id,
	})

	c.Status(http.StatusNoContent)
}
