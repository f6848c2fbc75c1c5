package http

import (
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/api/http/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"net/http"
	"strings"
	"time"
)

// MaxBodyBytes caps webhook request bodies.
const MaxBodyBytes = 64 << 10

// NewRouter registers the health check and the widget webhook.
//
// Parameters:
//   - handler: serves the routes.
//   - origins: browser origins allowed to call /webhook/*; empty allows any origin.
//   - ratePerMin: requests per minute per client IP on /webhook/*; non-positive disables the limit.
func NewRouter(handler *Handler, origins []string, ratePerMin int) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LogrusLog(), middleware.Recovery())

	router.GET("/", handler.Health)

	webhook := router.Group("/webhook")
	webhook.Use(
		cors.New(corsConfig(origins)),
		middleware.NewRateLimiter(ratePerMin).Handler(),
		middleware.BodyLimit(MaxBodyBytes),
	)
	webhook.POST("/tilda", handler.Webhook)
	// preflight requests are answered by the cors middleware
	webhook.OPTIONS("/tilda", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "*":
			cfg.AllowAllOrigins = true
		case strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://"):
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		case origin != "":
			logrus.WithField("origin", origin).Warn("Ignoring CORS origin without http(s) scheme")
		}
	}

	if cfg.AllowAllOrigins || len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowOrigins = nil
		return cfg
	}
	cfg.AllowCredentials = true
	return cfg
}
