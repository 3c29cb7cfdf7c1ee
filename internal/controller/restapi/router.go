package restapi

import (
	"context"
	"net/http"
	"time"

	v1 "github.com/RXLU5x/translate-image-text-cloud/internal/controller/restapi/v1"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const _healthTimeout = time.Second

// Pinger is a dependency whose reachability gates /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(app *fiber.App, gatherer prometheus.Gatherer, store Pinger, submissions usecase.SubmissionUseCase, l logger.Interface) {
	// Health and metrics
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(ctx.UserContext(), _healthTimeout)
		defer cancel()

		if err := store.Ping(c); err != nil {
			l.Warn("restapi - healthz - store.Ping: %v", err)

			return ctx.SendStatus(http.StatusServiceUnavailable)
		}

		return ctx.SendStatus(http.StatusOK)
	})

	// Metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewSubmissionRoutes(apiV1Group, submissions, l)
	}
}
