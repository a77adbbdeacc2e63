package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"

	"github.com/waveradio/core/internal/arbiter"
	"github.com/waveradio/core/internal/auth"
	"github.com/waveradio/core/internal/broadcast"
	"github.com/waveradio/core/internal/cache"
	"github.com/waveradio/core/internal/clock"
	"github.com/waveradio/core/internal/config"
	"github.com/waveradio/core/internal/controllers"
	"github.com/waveradio/core/internal/events"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/filestore"
	"github.com/waveradio/core/internal/library"
	"github.com/waveradio/core/internal/middleware"
	"github.com/waveradio/core/internal/playback"
	"github.com/waveradio/core/internal/prefetch"
	"github.com/waveradio/core/internal/scheduler"
	"github.com/waveradio/core/internal/store"
	"github.com/waveradio/core/internal/tts"
)

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := sql.Open("sqlite3", cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	queueStore, err := store.NewSQLiteQueueStore(db)
	if err != nil {
		log.Fatalf("Failed to init queue store: %v", err)
	}
	scheduleStore, err := store.NewSQLiteScheduleStore(db)
	if err != nil {
		log.Fatalf("Failed to init schedule store: %v", err)
	}
	playbackStateStore, err := store.NewSQLitePlaybackStateStore(db)
	if err != nil {
		log.Fatalf("Failed to init playback-state store: %v", err)
	}
	chatStore, err := store.NewSQLiteChatStore(db)
	if err != nil {
		log.Fatalf("Failed to init chat store: %v", err)
	}
	trackStore, err := library.NewSQLiteTrackStore(db)
	if err != nil {
		log.Fatalf("Failed to init track store: %v", err)
	}

	bus := events.NewEventBus()
	clk := clock.NewRealClock()

	ytdlp, err := extractor.NewYtDlp(cfg.Extractor.YtDlpPath)
	if err != nil {
		log.Fatalf("Failed to init stream extractor: %v", err)
	}

	streamCache := cache.NewStreamURLCache(cfg.Cache.StreamURLTTL)

	var ttsSvc tts.Service
	if cfg.TTS.Endpoint == "" {
		log.Printf("[WARN] no TTS_ENDPOINT configured, announcements are disabled")
		ttsSvc = &tts.MockService{}
	} else {
		httpTTS, err := tts.NewHTTPService(cfg.TTS.Endpoint, cfg.TTS.APIKey, cfg.TTS.CacheDir)
		if err != nil {
			log.Fatalf("Failed to init TTS service: %v", err)
		}
		ttsSvc = httpTTS
	}

	fileFactory := filestore.NewFactory(filestore.Backend(cfg.Filestore.Backend), cfg.Filestore.LocalDir, filestore.S3Options{
		Region:          cfg.AWS.Region,
		BucketName:      cfg.AWS.BucketName,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	fileStorage, err := fileFactory.Create()
	if err != nil {
		log.Fatalf("Failed to init file storage: %v", err)
	}
	localAudio, ok := fileStorage.(*filestore.LocalFileStorage)
	if !ok {
		// Offline fallback serving is local-disk only regardless of the
		// primary backend, so the controller always gets a usable handle.
		localAudio, err = filestore.NewLocalFileStorage(cfg.Filestore.LocalDir)
		if err != nil {
			log.Fatalf("Failed to init local audio fallback: %v", err)
		}
	}

	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiration)

	prefetcher := prefetch.New(scheduleStore, queueStore, ytdlp, streamCache, ttsSvc, bus, clk, log.Default())
	playbackController := playback.New(queueStore, scheduleStore, playbackStateStore, trackStore, bus, clk, ytdlp, streamCache, ttsSvc, prefetcher, log.Default())
	sched := scheduler.New(scheduleStore, chatStore, playbackController, prefetcher, clk, cfg.Scheduler.PrefetchLeadMinutes, log.Default())
	arb := arbiter.New(clk)
	hub := broadcast.NewHub(playbackController, arb, authService, bus, log.Default())
	go hub.Run()

	if err := sched.Initialize(); err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	authController := controllers.NewAuthController(authService, cfg)
	scheduleController := controllers.NewScheduleController(scheduleStore, sched)
	adminController := controllers.NewAdminController(playbackController, queueStore)
	streamController := controllers.NewStreamController(queueStore, ytdlp, streamCache, localAudio, trackStore, log.Default())

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Open to unauthenticated listener connections; only join-admin-room
	// (validated against a token carried in that message, not at upgrade
	// time) grants admin status.
	router.Handle("/ws", hub)

	authController.RegisterRoutes(router)
	adminController.RegisterRoutes(router)
	streamController.RegisterRoutes(router)

	adminAPI := router.PathPrefix("/api/v1/admin").Subrouter()
	adminAPI.Use(middleware.AuthMiddleware(authService))
	scheduleController.RegisterRoutes(adminAPI)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverReady := make(chan struct{})
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		close(serverReady)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-serverReady
	fmt.Println("Server is ready to accept connections")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
