// Package http wires the Gin engine, middleware and route groups.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fredylg/ReefBuddy-sub001/internal/interfaces/http/handlers"
	"github.com/fredylg/ReefBuddy-sub001/internal/interfaces/http/middleware"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

type Router struct {
	engine          *gin.Engine
	analysisHandler *handlers.AnalysisHandler
	creditHandler   *handlers.CreditHandler
	logger          logger.Interface
}

func NewRouter(
	analysisHandler *handlers.AnalysisHandler,
	creditHandler *handlers.CreditHandler,
	log logger.Interface,
) *Router {
	return &Router{
		engine:          gin.New(),
		analysisHandler: analysisHandler,
		creditHandler:   creditHandler,
		logger:          log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/analyze", r.analysisHandler.RequestAnalysis)

		credits := v1.Group("/credits")
		{
			credits.GET("/balance", r.creditHandler.GetBalance)
			credits.POST("/purchase", r.creditHandler.ApplyPurchase)
		}
	}
}

// Engine exposes the underlying Gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
