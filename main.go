package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appditto/capture-server/blobstore"
	"github.com/appditto/capture-server/config"
	"github.com/appditto/capture-server/controller"
	"github.com/appditto/capture-server/database"
	"github.com/appditto/capture-server/metrics"
	"github.com/appditto/capture-server/notify"
	"github.com/appditto/capture-server/repository"
	"github.com/appditto/capture-server/service"
	"github.com/appditto/capture-server/utils"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"k8s.io/klog/v2"
)

var Version = "dev"

func usage() {
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	// Server options
	flag.Usage = usage
	klog.InitFlags(nil)
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	configPath := flag.String("config", utils.GetEnv("CONFIG_PATH", ""), "Path to a YAML config file")
	enablePprof := flag.Bool("pprof", false, "Serve pprof endpoints under /debug/pprof")
	version := flag.Bool("version", false, "Display the version")
	flag.Parse()

	if *version {
		fmt.Printf("Capture server version: %s\n", Version)
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		klog.V(3).Infof("No .env file loaded: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Errorf("Error loading configuration: %v", err)
		os.Exit(1)
	}

	// Setup database conn
	fmt.Println("🗄  Connecting to database...")
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		panic(err)
	}

	fmt.Println("🦋 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	uploadService := &service.UploadService{
		Images:  &repository.ImageRepo{DB: db},
		Devices: &repository.DeviceTokenRepo{DB: db},
		Metrics: m,
	}

	// Setup blob store
	switch cfg.Blob.Driver {
	case blobstore.DriverFTP:
		ftpStore := blobstore.NewFTPStore(&cfg.Blob.FTP)
		defer ftpStore.Close()
		uploadService.Blobs = ftpStore
	default:
		cldStore, err := blobstore.NewCloudinaryStore(&cfg.Blob.Cloudinary)
		if err != nil {
			klog.Errorf("Error initiating cloudinary client: %v", err)
			os.Exit(1)
		}
		uploadService.Blobs = cldStore
	}

	// Setup FCM client
	if cfg.FCM.APIKey != "" {
		notifier, err := notify.NewFcmNotifier(cfg.FCM.APIKey)
		if err != nil {
			klog.Errorf("Error initiating FCM client: %v", err)
			os.Exit(1)
		}
		uploadService.Notifier = notifier
	} else {
		klog.Infof("FCM_API_KEY is not set, push notifications are disabled")
	}

	// Latest image cache
	if cfg.RedisEnabled {
		redisManager, err := database.NewRedis(&cfg.Redis)
		if err != nil {
			klog.Errorf("Error initiating redis client: %v", err)
			os.Exit(1)
		}
		defer redisManager.Close()
		if err := redisManager.Ping(context.Background()); err != nil {
			klog.Errorf("Redis is unreachable, latest image cache disabled: %v", err)
		} else {
			uploadService.Cache = &repository.LatestImageCache{Redis: redisManager, TTL: cfg.LatestCacheTTL}
		}
	}

	// Create app
	uc := &controller.UploadController{Service: uploadService}
	app := controller.NewApp(controller.AppOptions{
		BodyLimit: cfg.BodyLimit(),
		Pprof:     *enablePprof,
		Gatherer:  registry,
	}, uc, m)

	go func() {
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%d", cfg.Port)); err != nil {
			klog.Errorf("http server error: %v", err)
		}
	}()
	klog.Infof("Server running on port %d", cfg.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	klog.Infof("Shutdown signal received")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		klog.Errorf("Server shutdown error: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
