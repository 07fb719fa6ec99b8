package handler

import (
	"net/http"

	"marketplace-checkout/internal/handler/api"
	"marketplace-checkout/internal/handler/middleware"
	"marketplace-checkout/internal/pkg/config"
	"marketplace-checkout/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const maxBodyBytes = 1 << 20

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Checkout     *api.CheckoutHandler
	PaymentEvent *api.PaymentEventHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, m *metrics.Registry, checkoutHandler *api.CheckoutHandler, paymentEventHandler *api.PaymentEventHandler) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, m, Handlers{Checkout: checkoutHandler, PaymentEvent: paymentEventHandler})
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, m *metrics.Registry, h Handlers) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		checkouts := apiGroup.Group("/checkouts")
		{
			addRoutes(checkouts, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Checkout.Create, Mw: []gin.HandlerFunc{middleware.MaxBodyBytes(maxBodyBytes)}},
				{Method: http.MethodGet, Path: "/:id/total", Handler: h.Checkout.GetTotal},
				{Method: http.MethodGet, Path: "/:id/order-status", Handler: h.Checkout.GetOrderStatus},
				{Method: http.MethodGet, Path: "/:id/order", Handler: h.Checkout.GetOrder},
			})
		}

		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/payment-events", Handler: h.PaymentEvent.Receive, Mw: []gin.HandlerFunc{middleware.MaxBodyBytes(maxBodyBytes)}},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
