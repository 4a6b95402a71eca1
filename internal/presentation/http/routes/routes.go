package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/config"
	domainRepo "github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/internal/presentation/http/handler"
	"github.com/sangkips/retailpos-api/internal/presentation/http/middleware"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Billing *handler.BillingHandler
	Return  *handler.ReturnHandler
	Label   *handler.LabelHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *logrus.Logger
	RateLimiter     *middleware.TerminalRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.RateLimiter != nil {
			body["rate_limiter"] = deps.RateLimiter.Stats()
		}
		c.JSON(200, body)
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.TerminalMiddleware())
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	{
		registerBillingRoutes(v1, h)
		registerReturnRoutes(v1, h, deps)
		registerLabelRoutes(v1, h, deps)
		registerPrinterRoutes(v1, h)
	}

	return router
}

func registerBillingRoutes(v1 *gin.RouterGroup, h *Handlers) {
	billing := v1.Group("/billing")
	{
		billing.POST("/total", h.Billing.ComputeTotal)
		billing.POST("/allocate", h.Billing.AllocateDiscount)
		billing.POST("/breakdown", h.Billing.Breakdown)
		billing.POST("/tax/back-calculate", h.Billing.BackCalculateTax)
		billing.POST("/round-off", h.Billing.RoundOff)
		billing.POST("/replacement", h.Billing.Replacement)
	}

	bills := v1.Group("/bills")
	{
		bills.GET("/:id", h.Return.GetBill)
		bills.POST("/:id/labels", h.Label.PrintBill)
	}
}

func registerReturnRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	returns := v1.Group("/returns")
	{
		returns.POST("/preview", h.Return.Preview)
		// Submission goes to the backend once per key
		returns.POST("", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Return.Submit)
	}
}

func registerLabelRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	labels := v1.Group("/labels")
	{
		labels.POST("/print", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Label.Print)
		labels.POST("/preview", h.Label.Preview)
		labels.POST("/import", h.Label.Import)
		labels.GET("/jobs", h.Label.ListJobs)
		labels.GET("/jobs/:id", h.Label.GetJob)
		labels.GET("/documents/:name", h.Label.Document)
	}

	v1.GET("/barcodes/:value", h.Label.Barcode)
}

func registerPrinterRoutes(v1 *gin.RouterGroup, h *Handlers) {
	printerGroup := v1.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
	}
}
