package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.LedgerHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")

	weeks := api.Group("/weeks/:weekID")
	weeks.GET("", handler.ShowWeek)
	weeks.DELETE("", handler.DeleteWeek)
	weeks.POST("/toggle", handler.ToggleWeek)
	weeks.POST("/reload", handler.ReloadWeek)
	weeks.POST("/close", handler.CloseWeek)
	weeks.GET("/changes", handler.PendingChanges)
	weeks.POST("/commit", handler.CommitWeek)
	weeks.GET("/commits", handler.Commits)
	weeks.GET("/available", handler.Available)
	weeks.GET("/export", handler.ExportLink)
	weeks.POST("/export/sheets", handler.ExportSheet)

	weeks.POST("/details", handler.CreateDetail)
	weeks.PATCH("/details/:detailID", handler.MutateDetail)
	weeks.PUT("/details/:detailID", handler.UpdateDetail)
	weeks.DELETE("/details/:detailID", handler.DeleteDetail)
	weeks.POST("/details/:detailID/investments", handler.AddInvestment)
	weeks.DELETE("/investments/:investmentID", handler.RemoveInvestment)

	api.GET("/details/:detailID/investments", handler.ListInvestments)
	api.GET("/banks", handler.Banks)
	api.GET("/anomalies", handler.Anomalies)
	api.POST("/anomalies/refresh", handler.RefreshAnomalies)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

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
