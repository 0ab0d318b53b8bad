package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/service"
)

type JobHandler struct {
	ledger *service.Ledger
	logger *zap.Logger
}

func NewJobHandler(ledger *service.Ledger, logger *zap.Logger) *JobHandler {
	return &JobHandler{ledger: ledger, logger: logger}
}

type createJobRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	Token       string          `json:"token" binding:"required"`
}

type proposalRequest struct {
	Price decimal.Decimal `json:"price"`
}

type acceptRequest struct {
	Freelancer string `json:"freelancer" binding:"required"`
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.ledger.CreateJob(c.Request.Context(), callerAddress(c), req.Title, req.Description, req.Budget, req.Token)
	if err != nil {
		respondError(c, h.logger, "CreateJob", err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.ledger.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs filters by ?status=, default open.
// GET /jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	status := model.JobStatus(c.DefaultQuery("status", string(model.JobOpen)))
	jobs, err := h.ledger.GetJobsByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, "ListJobs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// POST /jobs/:id/proposals
func (h *JobHandler) SubmitProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req proposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.ledger.SubmitProposal(c.Request.Context(), callerAddress(c), id, req.Price)
	if err != nil {
		respondError(c, h.logger, "SubmitProposal", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// POST /jobs/:id/accept
func (h *JobHandler) AcceptProposal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.ledger.AcceptProposal(c.Request.Context(), callerAddress(c), id, req.Freelancer)
	if err != nil {
		respondError(c, h.logger, "AcceptProposal", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// POST /jobs/:id/complete
func (h *JobHandler) CompleteJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.ledger.CompleteJob(c.Request.Context(), callerAddress(c), id)
	if err != nil {
		respondError(c, h.logger, "CompleteJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// POST /jobs/:id/approve
func (h *JobHandler) ApproveJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	job, err := h.ledger.ApproveJob(c.Request.Context(), callerAddress(c), id)
	if err != nil {
		respondError(c, h.logger, "ApproveJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}
