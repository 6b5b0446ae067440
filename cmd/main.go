package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notification-service/internal/config"
	"notification-service/internal/server"
)

func main() {
	// Load config (reads .env when present)
	cfg := config.Load()

	// Background context: cancelled on shutdown to stop the dispatch
	// loop and the ws heartbeat.
	bgCtx, stopBackground := context.WithCancel(context.Background())

	// Build server and dispatch scheduler
	srv, sched := server.NewServer(bgCtx, cfg)
	go sched.Run(bgCtx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Notification service HTTP server starting on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Notification service shutting down gracefully...")
		stopBackground()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Notification service shutdown error: %v", err)
		}
	case err := <-errCh:
		stopBackground()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Notification service failed: %v", err)
		}
	}
}
