package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/repository"
	"escrowhub/internal/service"
)

type PaymentHandler struct {
	ledger *service.Ledger
	feed   *repository.FeedRepository
	logger *zap.Logger
}

// NewPaymentHandler builds the handler; feed may be nil when no Redis is configured.
func NewPaymentHandler(ledger *service.Ledger, feed *repository.FeedRepository, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, feed: feed, logger: logger}
}

type recordRequest struct {
	To      string          `json:"to" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}

type multiTransferRequest struct {
	Token      string            `json:"token" binding:"required"`
	Message    string            `json:"message"`
	Recipients []model.Recipient `json:"recipients" binding:"required"`
}

type regularPaymentRequest struct {
	To              string          `json:"to" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	IntervalSeconds int64           `json:"interval_seconds"`
	Message         string          `json:"message"`
}

// POST /transactions
func (h *PaymentHandler) RecordTransaction(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := h.ledger.RecordTransaction(c.Request.Context(), callerAddress(c), req.To, req.Amount, req.Message)
	if err != nil {
		respondError(c, h.logger, "RecordTransaction", err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// GET /addresses/:address/transactions
func (h *PaymentHandler) GetHistory(c *gin.Context) {
	history, err := h.ledger.GetTransactionHistory(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, h.logger, "GetHistory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

// GET /addresses/:address/balance?token=
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	address := c.Param("address")
	balance, err := h.ledger.GetBalance(c.Request.Context(), address, token)
	if err != nil {
		respondError(c, h.logger, "GetBalance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "token": token, "balance": balance})
}

// GET /addresses/:address/feed?limit=
func (h *PaymentHandler) GetFeed(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity feed disabled"})
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	items, err := h.feed.List(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		respondError(c, h.logger, "GetFeed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /transfers/batch
func (h *PaymentHandler) MultiTransfer(c *gin.Context) {
	var req multiTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	done, err := h.ledger.MultiTransfer(c.Request.Context(), callerAddress(c), req.Recipients, req.Token, req.Message)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("MultiTransfer stopped", zap.Int("completed", done), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error(), "completed": done})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": done})
}

// POST /payments
func (h *PaymentHandler) CreateRegularPayment(c *gin.Context) {
	var req regularPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	interval, ok := secondsToDuration(req.IntervalSeconds)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interval_seconds"})
		return
	}

	payment, err := h.ledger.CreateRegularPayment(c.Request.Context(), callerAddress(c), req.To, req.Amount,
		interval, req.Message)
	if err != nil {
		respondError(c, h.logger, "CreateRegularPayment", err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}
