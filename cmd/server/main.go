package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartmob-dashboard/config"
	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/catalog"
	"smartmob-dashboard/internal/configrecord"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/media"
	"smartmob-dashboard/internal/mediadevice"
	"smartmob-dashboard/internal/middlewares"
	"smartmob-dashboard/internal/notify"
	"smartmob-dashboard/internal/poller"
	"smartmob-dashboard/internal/qualitycheck"
	"smartmob-dashboard/internal/realtime"
	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	cfg := config.LoadConfig()

	appLog, err := logger.New(cfg.LogDirectory)
	if err != nil {
		log.Fatal("Failed to initialise logger:", err)
	}
	defer appLog.Close()

	if !cfg.BackendEnabled() {
		appLog.Warning("BACKEND_BASE_URL is not a valid http(s) URL: network features are disabled")
	}

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, cfg.BackendInsecureTLS)
	bus := notify.NewBus()
	gate := middlewares.RequireBackend(cfg.BackendEnabled())

	table.RegisterValidators()
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(appLog))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	storeOpts := datastore.Options{Bus: bus, Logger: appLog, MaxAge: cfg.StoreMaxAge}
	confirm := table.NewConfirmations(2 * time.Minute)

	acquisitionService := &acquisition.AcquisitionService{Client: client}
	images := media.NewService(client.HTTP, cfg.BackendBaseURL, cfg.GCSCredentialsFile)
	defer images.Close()
	acquisition.RegisterRoutes(r, acquisitionService, images, gate)

	catalogService := &catalog.CatalogService{Client: client}
	catalog.RegisterRoutes(r, catalogService, gate)

	recordService := &configrecord.RecordService{Client: client}
	configrecord.RegisterRoutes(r, recordService, configrecord.NewResource(recordService, storeOpts, confirm), gate)

	qualityCheckService := &qualitycheck.QualityCheckService{Client: client}
	qualitycheck.RegisterRoutes(r, qualityCheckService, qualitycheck.NewResource(qualityCheckService, storeOpts, confirm), gate)

	mediaDeviceService := &mediadevice.MediaDeviceService{Client: client}
	mediadevice.RegisterRoutes(r, mediaDeviceService, mediadevice.NewResource(mediaDeviceService, storeOpts, confirm), gate)

	notify.RegisterRoutes(r, bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var liveSync *realtime.Sync
	if cfg.BackendEnabled() {
		hubURL := client.URL(cfg.HubPath, nil)
		liveSync = realtime.NewSync(
			func() realtime.Channel {
				return realtime.NewHubConnection(hubURL, client.HTTP, client.TLS, appLog)
			},
			acquisitionService.Latest,
			realtime.Options{Bus: bus, Logger: appLog, MaxAttempts: cfg.ReconnectMaxAttempts},
		)
		defer liveSync.Close()
		go func() {
			if err := liveSync.Connect(ctx); err != nil {
				appLog.Warning("Realtime hub not reachable at startup: %v", err)
			}
		}()
	}
	realtime.RegisterRoutes(r, liveSync, acquisitionService, gate)
	realtime.RegisterHealthRoutes(r, cfg.BackendEnabled(), liveSync, acquisitionService)

	hub := websocket.NewHub(appLog)
	go hub.Run(ctx)
	go websocket.Relay(ctx, hub, liveSync, bus, appLog)
	websocket.RegisterRoutes(r, &websocket.StreamController{
		Hub:  hub,
		Sync: liveSync,
		NewPoller: func() *poller.Poller {
			return poller.New(acquisitionService.LatestSingle, poller.Options{Interval: cfg.PollInterval, Logger: appLog})
		},
		Upgrader: websocket.NewUpgrader(cfg.AllowedOrigins),
		Logger:   appLog,
	}, gate)

	srv := &http.Server{Addr: "0.0.0.0:" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("Shutdown: %v", err)
		}
	}()

	appLog.Info("Starting server on 0.0.0.0:%s ...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
