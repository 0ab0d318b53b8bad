package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escrowhub/internal/service"
)

type AdminHandler struct {
	ledger *service.Ledger
	logger *zap.Logger
}

func NewAdminHandler(ledger *service.Ledger, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, logger: logger}
}

// POST /admin/initialize
func (h *AdminHandler) Initialize(c *gin.Context) {
	already, err := h.ledger.Initialize(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Initialize", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"already_initialized": already})
}

type executePaymentsRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /admin/payments/execute
func (h *AdminHandler) ExecutePayments(c *gin.Context) {
	var req executePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := h.ledger.ExecuteRegularPayments(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, "ExecutePayments", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RebuildIndex re-derives campaign contribution totals from the whole journal.
// POST /admin/journal/rebuild
func (h *AdminHandler) RebuildIndex(c *gin.Context) {
	if err := h.ledger.Journal().Rebuild(c.Request.Context()); err != nil {
		respondError(c, h.logger, "RebuildIndex", err)
		return
	}
	h.logger.Info("Contribution index rebuilt")
	c.JSON(http.StatusOK, gin.H{"status": "rebuilt"})
}
