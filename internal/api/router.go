package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/investor-account-ledger/internal/api/handler"
	"github.com/investor-account-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	maxUploadBytes int64,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// Transaction operations
	txns := r.Group("/transaction")
	{
		txns.POST("/new", transactionHandler.New)
		txns.POST("/new-bulk", limitBody(maxUploadBytes), transactionHandler.NewBulk)
		txns.GET("/get", transactionHandler.Get)
		txns.PUT("/reverse", transactionHandler.Reverse)
	}

	// Account operations
	accounts := r.Group("/account")
	{
		accounts.POST("/new", accountHandler.New)
		accounts.GET("/get", accountHandler.Get)
		accounts.GET("/transactions", transactionHandler.History)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

// limitBody caps the request body size so oversized uploads fail while
// reading instead of buffering in memory
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
