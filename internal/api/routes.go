package api

import (
	"net/http"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services bundles what the routes depend on.
type Services struct {
	Auth     service.AuthService
	Delivery service.DeliveryService
	Admin    service.AdminService
	Gallery  service.GalleryService
	Shop     service.ShopService
	Contact  service.ContactService
}

// RouteOptions carries the HTTP-level settings of the routes.
type RouteOptions struct {
	SessionCookieName string
	SecureCookies     bool
	MaxUploadBytes    int64
	CartMaxAgeSeconds int
	LoginRate         float64
	LoginBurst        int
}

func SetupRoutes(router *gin.Engine, svc Services, opts RouteOptions, log *logrus.Logger) {
	registerValidators()

	authHandler := NewAuthHandler(svc.Auth, opts.SessionCookieName, opts.SecureCookies, log)
	deliveryHandler := NewDeliveryHandler(svc.Delivery, log)
	adminHandler := NewAdminHandler(svc.Admin, opts.MaxUploadBytes, log)
	galleryHandler := NewGalleryHandler(svc.Gallery, log)
	shopHandler := NewShopHandler(svc.Shop, opts.CartMaxAgeSeconds, opts.SecureCookies, log)
	contactHandler := NewContactHandler(svc.Contact, log)

	loginLimiter := NewLoginRateLimiter(opts.LoginRate, opts.LoginBurst, log)
	adminAuth := AdminAuthMiddleware(svc.Auth, opts.SessionCookieName)

	router.Use(RequestLogger(log), Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")

	// --- Admin Routes ---
	adminGroup := api.Group("/admin")
	{
		adminGroup.POST("/login", loginLimiter.Handler(), authHandler.Login)
		adminGroup.POST("/logout", authHandler.Logout)
		adminGroup.GET("/session", authHandler.Session)
	}

	protected := adminGroup.Group("")
	protected.Use(adminAuth)
	{
		protected.GET("/uploads", adminHandler.ListUploads)
		protected.POST("/uploads", adminHandler.CreateUpload)
		protected.GET("/uploads/:slug", adminHandler.GetUpload)
		protected.DELETE("/uploads/:slug", adminHandler.DeleteUpload)
		protected.GET("/uploads/:slug/files/:filename/url", adminHandler.FileDownloadURL)

		protected.PUT("/uploads/:slug/ratings", adminHandler.SetRating)
		protected.DELETE("/uploads/:slug/ratings", adminHandler.ClearRatings)
		protected.PUT("/uploads/:slug/ratings-enabled", adminHandler.SetRatingsEnabled)
		protected.PUT("/uploads/:slug/background", adminHandler.SetBackgroundImage)
		protected.PUT("/uploads/:slug/preview", adminHandler.SetPreviewImage)
		protected.PUT("/uploads/:slug/expiry", adminHandler.SetExpiry)

		protected.GET("/orphans", adminHandler.FindOrphans)
		protected.POST("/orphans/cleanup", adminHandler.CleanupOrphans)
		protected.GET("/stats", adminHandler.Stats)

		protected.GET("/galleries/order", galleryHandler.GetOrder)
		protected.PUT("/galleries/:category/order", galleryHandler.SetOrder)

		protected.POST("/products", shopHandler.CreateProduct)
		protected.GET("/orders", shopHandler.ListOrders)
		protected.PUT("/orders/:id/status", shopHandler.UpdateOrderStatus)

		protected.GET("/messages", contactHandler.ListMessages)
	}

	// --- Public Gallery Routes ---
	api.GET("/photos/:category/:filename", galleryHandler.ServePhoto)
	api.GET("/galleries", galleryHandler.ListCategories)
	api.GET("/galleries/:category", galleryHandler.ListPhotos)

	// --- Shop Routes ---
	shopGroup := api.Group("/shop")
	{
		shopGroup.GET("/products", shopHandler.ListProducts)
		shopGroup.GET("/cart", shopHandler.GetCart)
		shopGroup.DELETE("/cart", shopHandler.ClearCart)
		shopGroup.POST("/cart/items", shopHandler.AddToCart)
		shopGroup.PUT("/cart/items", shopHandler.UpdateCartItem)
		shopGroup.POST("/checkout", shopHandler.Checkout)
	}

	api.POST("/contact", contactHandler.Submit)

	// --- Client Delivery Routes ---
	// Static segments above take precedence over the slug parameter.
	api.GET("/:slug", deliveryHandler.GetUpload)
	api.GET("/:slug/files/:filename", deliveryHandler.ServeFile)
	api.POST("/:slug/ratings", deliveryHandler.Rate)
}
