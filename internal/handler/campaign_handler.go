package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/service"
)

type CampaignHandler struct {
	ledger *service.Ledger
	logger *zap.Logger
}

func NewCampaignHandler(ledger *service.Ledger, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{ledger: ledger, logger: logger}
}

type createCampaignRequest struct {
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"description"`
	Goal            decimal.Decimal     `json:"goal"`
	DurationSeconds int64               `json:"duration_seconds"`
	Token           string              `json:"token" binding:"required"`
	Tiers           []model.FundingTier `json:"tiers"`
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// POST /campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	duration, ok := secondsToDuration(req.DurationSeconds)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration_seconds"})
		return
	}

	campaign, err := h.ledger.CreateCampaign(c.Request.Context(), callerAddress(c), req.Title, req.Description,
		req.Goal, duration, req.Token, req.Tiers)
	if err != nil {
		respondError(c, h.logger, "CreateCampaign", err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// GET /campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	campaign, err := h.ledger.GetCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetCampaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// ListCampaigns filters by ?status=, default active.
// GET /campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	status := model.CampaignStatus(c.DefaultQuery("status", string(model.CampaignActive)))
	campaigns, err := h.ledger.GetCampaignsByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, "ListCampaigns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// POST /campaigns/:id/fund
func (h *CampaignHandler) FundCampaign(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	campaign, err := h.ledger.FundCampaign(c.Request.Context(), callerAddress(c), id, req.Amount)
	if err != nil {
		respondError(c, h.logger, "FundCampaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// CloseCampaign may be called by anyone; settlement depends only on status and deadline.
// POST /campaigns/:id/close
func (h *CampaignHandler) CloseCampaign(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	campaign, err := h.ledger.CloseCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "CloseCampaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}
