package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelinof/chatrelay/internal/api"
	"github.com/avelinof/chatrelay/internal/auth"
	"github.com/avelinof/chatrelay/internal/chat"
	"github.com/avelinof/chatrelay/internal/config"
	"github.com/avelinof/chatrelay/internal/database"
	"github.com/avelinof/chatrelay/internal/logger"
	"github.com/avelinof/chatrelay/internal/monitoring"
	"github.com/avelinof/chatrelay/internal/server"
	"github.com/avelinof/chatrelay/internal/services"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure the directory for received file bodies exists
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		log.Fatalf("Failed to create uploads directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up the room registry
	hub := chat.NewHub()

	// Set up services
	userService := services.NewUserService(db)
	messageService := services.NewMessageService(db)
	fileService := services.NewFileService(db, cfg.UploadsDir)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	// Set up the chat server
	chatServer := server.New(cfg, hub, userService, messageService, fileService, tokens)

	// Set up and run the background stat updater
	statUpdater := monitoring.NewStatUpdater(hub)
	go statUpdater.Run()

	// Set up the retention sweeper, if enabled
	var retention *monitoring.Retention
	if cfg.RetentionDays > 0 {
		retention = monitoring.NewRetention(messageService, fileService, cfg.RetentionDays)
		if err := retention.Start(cfg.RetentionSchedule); err != nil {
			log.Fatalf("Failed to start retention sweeper: %v", err)
		}
	}

	// Set up the status API and WebSocket gateway, if enabled
	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: api.NewRouter(db, hub, statUpdater, chatServer),
		}
		go func() {
			log.Printf("Status API listening on %s\n", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
				log.Fatalf("Status API ListenAndServe(): %v", err)
			}
		}()
	}

	// Run the chat listener
	go func() {
		if err := chatServer.ListenAndServe(); err != nil {
			log.Fatalf("Chat ListenAndServe(): %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	statUpdater.Stop()
	if retention != nil {
		retention.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("Status API forced to shutdown: %v", err)
		}
	}
	if err := chatServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
