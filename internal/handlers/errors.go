package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/middleware"
	"github.com/BruksfildServices01/salon-scheduler/internal/usecase/payment"
)

// ======================================================
// ERROR MAPPING
// ======================================================

var businessStatus = map[string]int{
	httperr.CodeNotFound:            http.StatusNotFound,
	httperr.CodeAppointmentNotFound: http.StatusNotFound,
	httperr.CodeClientNotFound:      http.StatusNotFound,
	httperr.CodeDiscountNotFound:    http.StatusNotFound,
	httperr.CodeServiceNotFound:     http.StatusNotFound,

	httperr.CodeSlotConflict:         http.StatusConflict,
	httperr.CodeAlreadyCompleted:     http.StatusConflict,
	httperr.CodeDiscountNotAvailable: http.StatusConflict,
	httperr.CodeClientAlreadyExists:  http.StatusConflict,

	httperr.CodeEmptySelection:      http.StatusBadRequest,
	httperr.CodeInvalidAmount:       http.StatusBadRequest,
	httperr.CodeUnknownService:      http.StatusBadRequest,
	httperr.CodeNotAPackage:         http.StatusBadRequest,
	httperr.CodeInvalidReferralCode: http.StatusBadRequest,
}

var businessMessages = map[string]string{
	httperr.CodeNotFound:                  "Registro não encontrado.",
	httperr.CodeAppointmentNotFound:       "Agendamento não encontrado.",
	httperr.CodeClientNotFound:            "Cliente não encontrado.",
	httperr.CodeDiscountNotFound:          "Desconto não encontrado.",
	httperr.CodeServiceNotFound:           "Serviço não encontrado.",
	httperr.CodeUnknownService:            "Serviço desconhecido.",
	httperr.CodeEmptySelection:            "Selecione ao menos um serviço.",
	httperr.CodeNotAPackage:               "Serviço não é vendido como pacote.",
	httperr.CodeOutsideWorkingHours:       "Fora do horário de atendimento.",
	httperr.CodeSlotConflict:              "Horário indisponível.",
	httperr.CodeTooSoon:                   "Horário muito próximo.",
	httperr.CodeInvalidState:              "Operação inválida para o status atual.",
	httperr.CodeAlreadyCompleted:          "Agendamento já concluído.",
	httperr.CodeInvalidDiscountTransition: "Transição de desconto inválida.",
	httperr.CodeDiscountNotAvailable:      "Desconto indisponível.",
	httperr.CodeInvalidAmount:             "Valor inválido.",
	httperr.CodeInvalidReferralCode:       "Código de indicação inválido.",
	httperr.CodeClientAlreadyExists:       "Cliente já cadastrado.",
}

// writeError translates a use case error into the HTTP envelope.
// Business codes keep their own code; anything else is a 500.
func writeError(c *gin.Context, err error) {
	var recErr *payment.ReconciliationError
	if errors.As(err, &recErr) {
		log.Error().Err(recErr.Cause).Str("path", c.FullPath()).Msg("payment reconciliation failed")
		httperr.Internal(c, httperr.CodeReconciliationFailed, "Falha ao reconciliar o pagamento.")
		return
	}

	if be, ok := httperr.AsBusiness(err); ok {
		status, found := businessStatus[be.Code]
		if !found {
			status = http.StatusUnprocessableEntity
		}
		msg := businessMessages[be.Code]
		if msg == "" {
			msg = be.Code
		}
		httperr.WriteMeta(c, status, be.Code, msg, be.Meta)
		return
	}

	_ = c.Error(err)
	httperr.Internal(c, "internal_error", "Erro interno.")
}

// ======================================================
// PARAMS
// ======================================================

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}

func staffID(c *gin.Context) *uint {
	id := c.MustGet(middleware.ContextUserID).(uint)
	return &id
}

// parseIDList reads "1,2,3".
func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
