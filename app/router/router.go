package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/app/controller"
)

type Controllers struct {
	Catalog        *controller.CatalogController
	Box            *controller.BoxController
	Recommendation *controller.RecommendationController
	Checkout       *controller.CheckoutController
	Session        *controller.SessionController
}

// Options configures the engine
type Options struct {
	AllowedOrigins []string
	Session        gin.HandlerFunc // Resolves the session cookie for workflow routes
	Middleware     []gin.HandlerFunc
}

func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetupRoutes builds the gin engine with every route registered
func SetupRoutes(controllers *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(opts.Middleware...)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"X-Receipt-URL", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/ping", pingHandler)
	r.GET("/health", pingHandler)

	api := r.Group("/api")
	api.GET("/catalog", controllers.Catalog.GetCatalog)

	workflow := api.Group("")
	workflow.Use(opts.Session)
	{
		workflow.GET("/session", controllers.Session.GetSession)
		workflow.PUT("/session/preferences", controllers.Session.UpdatePreferences)
		workflow.POST("/session/reset", controllers.Session.Reset)

		workflow.POST("/box/items/:id/increment", controllers.Box.Increment)
		workflow.POST("/box/items/:id/decrement", controllers.Box.Decrement)
		workflow.PUT("/box", controllers.Box.Replace)
		workflow.DELETE("/box", controllers.Box.Clear)
		workflow.POST("/box/presets/:preset", controllers.Box.ApplyPreset)

		workflow.POST("/recommendation", controllers.Recommendation.Recommend)

		workflow.POST("/checkout/review", controllers.Checkout.Review)
		workflow.POST("/checkout/back", controllers.Checkout.Back)
		workflow.PUT("/checkout/details", controllers.Checkout.UpdateDetails)
		workflow.POST("/checkout/pay", controllers.Checkout.Pay)
		workflow.POST("/checkout/pay/callback", controllers.Checkout.PaymentCallback)
		workflow.POST("/checkout/pay/cancel", controllers.Checkout.CancelPayment)
		workflow.POST("/checkout/handoff", controllers.Checkout.Handoff)

		workflow.GET("/receipt", controllers.Session.ReceiptPDF)
		workflow.GET("/receipt.html", controllers.Session.ReceiptHTML)
	}

	return r
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
