// File: fixitquick/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixitquick/config"
	"fixitquick/cron"
	"fixitquick/database"
	dispatchRepoPkg "fixitquick/database/repository/dispatch"
	providerRepoPkg "fixitquick/database/repository/provider"
	"fixitquick/handlers"
	"fixitquick/middleware"
	"fixitquick/models"
	"fixitquick/routes"
	"fixitquick/services/dispatch"
	"fixitquick/services/notification"
	"fixitquick/services/tasks"
	"fixitquick/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetCacheClient(), utils.GetAuthCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	dispRepo := dispatchRepoPkg.NewMongoDispatchRepo()
	provRepo := providerRepoPkg.NewMongoProviderRepo()

	// expiry timers on the asynq delayed queue.
	scheduler := tasks.NewAsynqScheduler(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDispatchDB,
	})
	defer scheduler.Close()

	// FCM is optional in development; without credentials offers are only
	// logged and surfaced through polling and the event stream.
	var notifier notification.Notifier = notification.NopNotifier{}
	if config.AppConfig.FirebaseCredentialsFile != "" {
		utils.FirebaseInit()
		fcmNotifier, err := notification.NewFCMNotifier(provRepo)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize FCM notifier: %v", err)
		}
		notifier = fcmNotifier
	}

	broker := dispatch.NewBroker()

	selector := &dispatch.DefaultCandidateSelector{
		ProviderRepo: provRepo,
		RadiusKm:     config.AppConfig.SearchRadiusKm,
		Limit:        config.AppConfig.BroadcastLimit,
	}

	coordinator := &dispatch.DefaultCoordinator{
		Repo:           dispRepo,
		Providers:      provRepo,
		Selector:       selector,
		Scheduler:      scheduler,
		Notifier:       notifier,
		Events:         broker,
		Policy:         models.DispatchPolicy(config.AppConfig.DispatchPolicy),
		OfferWindow:    config.AppConfig.OfferWindow,
		BroadcastLimit: config.AppConfig.BroadcastLimit,
		MaxRounds:      config.AppConfig.MaxDispatchRounds,
		Logger:         logger,
	}

	// Reconcile expiry timers against the store before taking traffic.
	if err := coordinator.Recover(context.Background()); err != nil {
		logger.Sugar().Fatalf("main: timer recovery failed: %v", err)
	}

	// Consume expiry fires in the background.
	cron.InitExpiryWorker(coordinator)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Coordinator:  coordinator,
		Repo:         dispRepo,
		ProviderRepo: provRepo,
		Events:       broker,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
