package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/httpresp"
	ucLoyalty "github.com/BruksfildServices01/salon-scheduler/internal/usecase/loyalty"
)

type ClientHandler struct {
	repo    domain.Repository
	loyalty *ucLoyalty.GetClientLoyalty
}

func NewClientHandler(repo domain.Repository, loyalty *ucLoyalty.GetClientLoyalty) *ClientHandler {
	return &ClientHandler{repo: repo, loyalty: loyalty}
}

// ======================================================
// LIST CLIENTS
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	clients, err := h.repo.ListClients(c.Request.Context(), query)
	if err != nil {
		httperr.Internal(c, "failed_to_list_clients", "Erro ao listar clientes.")
		return
	}

	httpresp.List(c, clients)
}

// ======================================================
// LOYALTY OVERVIEW
// ======================================================
func (h *ClientHandler) Loyalty(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	overview, err := h.loyalty.Execute(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
