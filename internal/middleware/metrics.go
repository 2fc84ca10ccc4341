package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campfire_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ActiveWebSockets tracks currently open WebSocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campfire_active_websockets",
		Help: "Number of currently open WebSocket connections",
	})

	// LikeToggles counts like toggle operations by direction.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campfire_like_toggles_total",
		Help: "Total number of like toggle operations by direction",
	}, []string{"direction"})

	// FollowToggles counts follow toggle operations by direction.
	FollowToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campfire_follow_toggles_total",
		Help: "Total number of follow toggle operations by direction",
	}, []string{"direction"})

	// UploadBytes totals bytes accepted by the media upload endpoint.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campfire_upload_bytes_total",
		Help: "Total bytes accepted by the media upload endpoint",
	})
)

// InitMetrics sets up the Prometheus middleware and exposes /metrics.
// The returned instance must be registered on the app via MetricsMiddleware.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	prom := fiberprometheus.New(serviceName)
	return prom
}

// MetricsMiddleware returns the Fiber handler that records request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
