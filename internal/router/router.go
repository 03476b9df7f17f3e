package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/auctionlabs/command-server/internal/interface/http"
	"github.com/auctionlabs/command-server/internal/interface/middleware"
)

// Setup registers the command routes. Dependencies are passed in explicitly;
// there is no registry or container indirection.
func Setup(r *gin.Engine, h *handlers.CommandHandler, rdb *redis.Client) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Registration is the only unauthenticated write surface, keep it on a
	// tighter budget than the aggregate-scoped commands.
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute)
	commandLimiter := middleware.RateLimit(rdb, 60, time.Minute)

	api.POST("/commands/register-user", registerLimiter, h.RegisterUser)
	api.POST("/commands/change-password", commandLimiter, h.ChangePassword)
	api.POST("/commands/verify-email", commandLimiter, h.VerifyEmail)
}
