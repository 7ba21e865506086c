package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
	ucLoyalty "github.com/BruksfildServices01/salon-scheduler/internal/usecase/loyalty"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type LoyaltyHandler struct {
	expire    *ucLoyalty.ExpireDiscount
	birthdays *ucLoyalty.GrantBirthdayDiscounts
	history   *ucLoyalty.ListHistory
}

func NewLoyaltyHandler(
	expire *ucLoyalty.ExpireDiscount,
	birthdays *ucLoyalty.GrantBirthdayDiscounts,
	history *ucLoyalty.ListHistory,
) *LoyaltyHandler {
	return &LoyaltyHandler{
		expire:    expire,
		birthdays: birthdays,
		history:   history,
	}
}

////////////////////////////////////////////////////////
// DISCOUNTS
////////////////////////////////////////////////////////

func (h *LoyaltyHandler) ExpireDiscount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.expire.Execute(c.Request.Context(), staffID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// GrantBirthdays runs the daily birthday grant; calling it twice on the same
// day grants nothing the second time.
func (h *LoyaltyHandler) GrantBirthdays(c *gin.Context) {
	granted, err := h.birthdays.Execute(c.Request.Context(), staffID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"granted":   len(granted),
		"discounts": granted,
	})
}

////////////////////////////////////////////////////////
// HISTORY
////////////////////////////////////////////////////////

func (h *LoyaltyHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	f := loyalty.HistoryFilter{
		Action: c.Query("action"),
		Limit:  limit,
	}

	if raw := c.Query("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_client_id", "Cliente inválido.")
			return
		}
		f.ClientID = uint(id)
	}

	if fromStr := c.Query("from"); fromStr != "" {
		if from, err := timezone.ParseDate(fromStr); err == nil {
			f.From = &from
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if to, err := timezone.ParseDate(toStr); err == nil {
			end := to.Add(24 * time.Hour)
			f.To = &end
		}
	}

	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	f.Offset = (page - 1) * f.Limit

	entries, total, err := h.history.Execute(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.Page(c, entries, page, f.Limit, total)
}
