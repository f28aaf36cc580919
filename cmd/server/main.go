package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/photo-portfolio/internal/api"
	"alcyxob/photo-portfolio/internal/config"
	"alcyxob/photo-portfolio/internal/jobs"
	"alcyxob/photo-portfolio/internal/logging"
	"alcyxob/photo-portfolio/internal/repository/mongo"
	"alcyxob/photo-portfolio/internal/repository/objectstore"
	cartredis "alcyxob/photo-portfolio/internal/repository/redis"
	"alcyxob/photo-portfolio/internal/service"
	"alcyxob/photo-portfolio/internal/session"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// @title Photo Portfolio API
// @version 1.0
// @description Public portfolio galleries, private client deliveries and a print shop.
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name admin_session
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Could not load config: %v", err)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.WithFields(logrus.Fields{
		"address": cfg.Server.Address,
		"storage": cfg.Storage.Driver,
		"mode":    cfg.Server.Mode,
	}).Info("Starting photo portfolio server")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(startupCtx, cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to MongoDB")
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("Database connection established")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB, log)
	}()

	// --- Cart Store ---
	redisClient, err := cartredis.Connect(startupCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to Redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis client")
		}
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.New(startupCtx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize object storage")
	}

	// --- Initialize Repositories ---
	uploadRepo := objectstore.NewUploadRepository(fileStorage)
	galleryOrderRepo := objectstore.NewGalleryOrderRepository(fileStorage)
	productRepo := mongo.NewMongoProductRepository(appDB)
	orderRepo := mongo.NewMongoOrderRepository(appDB)
	contactRepo := mongo.NewMongoContactRepository(appDB)
	cartRepo := cartredis.NewCartRepository(redisClient, cfg.Redis.CartTTL)

	// --- Initialize Services ---
	sealer, err := session.NewSealer(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.WithError(err).Fatal("Invalid session configuration")
	}
	adminService := service.NewAdminService(uploadRepo, fileStorage, cfg.Delivery.DefaultExpiryDays, service.Pricing{
		PerGBMonth:  cfg.Storage.PricePerGBMonth,
		PerGBEgress: cfg.Storage.PricePerGBEgress,
	}, log)
	services := api.Services{
		Auth:     service.NewAuthService(cfg.Admin.Password, cfg.Admin.PasswordHash, sealer),
		Delivery: service.NewDeliveryService(uploadRepo, fileStorage, cfg.Delivery.DefaultExpiryDays),
		Admin:    adminService,
		Gallery:  service.NewGalleryService(galleryOrderRepo, fileStorage),
		Shop:     service.NewShopService(productRepo, orderRepo, cartRepo, fileStorage, log),
		Contact:  service.NewContactService(contactRepo, log),
	}

	// --- Background Jobs ---
	cleanupJob := jobs.NewCleanupJob(adminService, cfg.Cleanup.Schedule, log)
	if err := cleanupJob.Start(); err != nil {
		log.WithError(err).Fatal("Could not start orphan cleanup job")
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.WithError(err).Fatal("Invalid trusted proxies")
	}

	api.SetupRoutes(router, services, api.RouteOptions{
		SessionCookieName: cfg.Session.CookieName,
		SecureCookies:     cfg.Session.Secure,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		CartMaxAgeSeconds: int(cfg.Redis.CartTTL.Seconds()),
		LoginRate:         cfg.Admin.LoginRate,
		LoginBurst:        cfg.Admin.LoginBurst,
	}, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	cleanupJob.Stop(ctxShutdown)
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exiting")
}
