package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/internal/service"
)

type UserHandler struct {
	ledger *service.Ledger
	logger *zap.Logger
}

func NewUserHandler(ledger *service.Ledger, logger *zap.Logger) *UserHandler {
	return &UserHandler{ledger: ledger, logger: logger}
}

type registerRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

// Register assigns the caller a role.
// POST /users
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.ledger.RegisterUser(c.Request.Context(), callerAddress(c), req.Role)
	if err != nil {
		respondError(c, h.logger, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /users/:address
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.ledger.GetUser(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, h.logger, "GetUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
