package api

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"bedclock/config"
	"bedclock/internal/mw"
)

// limiterIdle is how long a client may stay quiet before its rate limiter
// is forgotten.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router. Responses to cached
// GETs live in cacheStore, which is flushed after every successful mutation;
// ctx bounds the router's background housekeeping.
func NewRouter(ctx context.Context, h *Handler, cfg config.ServerConfig, cacheStore *cache.Cache) *gin.Engine {
	r := gin.Default()

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	go sweepLimiter(ctx, limiter)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(limiter.Middleware(), mw.Invalidate(cacheStore))
	{
		api.GET("/alarms", caching, h.GetAlarms)
		api.POST("/alarms", h.PostAlarm)
		api.DELETE("/alarms/:index", h.DeleteAlarm)

		api.POST("/playback", h.PostPlayback)
		api.DELETE("/playback", h.DeletePlayback)

		api.GET("/status", h.GetStatus)
		api.POST("/button", h.PostButton)
		api.PUT("/time", h.PutTime)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.PutSettings)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

func sweepLimiter(ctx context.Context, l *mw.IPRateLimiter) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(limiterIdle); n > 0 {
				log.Printf("Forgot %d idle rate-limited clients", n)
			}
		}
	}
}
