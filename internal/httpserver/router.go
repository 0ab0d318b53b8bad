package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"escrowhub/internal/handler"
	"escrowhub/internal/store"
)

type Router struct {
	Engine *gin.Engine
}

type Deps struct {
	Users     *handler.UserHandler
	Jobs      *handler.JobHandler
	Campaigns *handler.CampaignHandler
	Payments  *handler.PaymentHandler
	Admin     *handler.AdminHandler

	JWTSecret    string
	AdminKeyHash string
	Limiter      *RateLimiter

	// checked by /readyz, may be empty
	ReadyChecks []store.Pinger
	Logger      *zap.Logger
}

// NewOpsRouter serves only /healthz, /readyz and /metrics. Used by the background binaries.
func NewOpsRouter(checks []store.Pinger) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		for _, p := range checks {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{Engine: r}
}

func NewRouter(d Deps) *Router {
	router := NewOpsRouter(d.ReadyChecks)
	r := router.Engine

	api := r.Group("/")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware(d.Logger))
	}

	auth := api.Group("/")
	auth.Use(AuthMiddleware(d.JWTSecret))
	{
		auth.POST("/users", d.Users.Register)
		auth.GET("/users/:address", d.Users.GetUser)

		auth.POST("/jobs", d.Jobs.CreateJob)
		auth.GET("/jobs", d.Jobs.ListJobs)
		auth.GET("/jobs/:id", d.Jobs.GetJob)
		auth.POST("/jobs/:id/proposals", d.Jobs.SubmitProposal)
		auth.POST("/jobs/:id/accept", d.Jobs.AcceptProposal)
		auth.POST("/jobs/:id/complete", d.Jobs.CompleteJob)
		auth.POST("/jobs/:id/approve", d.Jobs.ApproveJob)

		auth.POST("/campaigns", d.Campaigns.CreateCampaign)
		auth.GET("/campaigns", d.Campaigns.ListCampaigns)
		auth.GET("/campaigns/:id", d.Campaigns.GetCampaign)
		auth.POST("/campaigns/:id/fund", d.Campaigns.FundCampaign)
		auth.POST("/campaigns/:id/close", d.Campaigns.CloseCampaign)

		auth.POST("/transactions", d.Payments.RecordTransaction)
		auth.POST("/transfers/batch", d.Payments.MultiTransfer)
		auth.POST("/payments", d.Payments.CreateRegularPayment)
		auth.GET("/addresses/:address/transactions", d.Payments.GetHistory)
		auth.GET("/addresses/:address/balance", d.Payments.GetBalance)
		auth.GET("/addresses/:address/feed", d.Payments.GetFeed)
	}

	admin := api.Group("/admin")
	admin.Use(AdminMiddleware(d.AdminKeyHash))
	{
		admin.POST("/initialize", d.Admin.Initialize)
		admin.POST("/payments/execute", d.Admin.ExecutePayments)
		admin.POST("/journal/rebuild", d.Admin.RebuildIndex)
	}

	return router
}
