package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "infinity_redis_errors_total",
	Help: "Total number of Redis command errors",
}, []string{"command"})

// RepositoryConflicts counts uniqueness violations surfaced by the storage layer.
var RepositoryConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "infinity_repository_conflicts_total",
	Help: "Total number of unique constraint conflicts by table",
}, []string{"table"})

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
