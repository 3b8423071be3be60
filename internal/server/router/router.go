package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hjmsindangan/stockbook/internal/config"
	"github.com/hjmsindangan/stockbook/internal/server/auth"
	"github.com/hjmsindangan/stockbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. Everything
// except login and the health probe sits behind the token gate.
func New(authHandler *handlers.AuthHandler, invHandler *handlers.InventoryHandler, authCfg config.AuthConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	protected := r.Group("/", auth.Middleware(authCfg))
	protected.GET("/categories", invHandler.ListCategories)
	protected.GET("/categories/:name", invHandler.GetCategory)
	protected.POST("/categories/:name/adjustments", invHandler.ApplyAdjustment)
	protected.GET("/ledger", invHandler.GetLedger)
	protected.GET("/ledger/summary", invHandler.GetSummary)
	protected.POST("/ledger/rebuild", invHandler.RebuildLedger)
	protected.POST("/refresh", invHandler.Refresh)
	protected.GET("/reports/drift", invHandler.GetDrift)
	protected.GET("/reports/recent", invHandler.GetRecentReports)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
