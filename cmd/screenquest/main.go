package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screenquest/screenquest/internal/database"
	"github.com/screenquest/screenquest/internal/logging"
	"github.com/screenquest/screenquest/internal/proof"
	"github.com/screenquest/screenquest/internal/push"
	"github.com/screenquest/screenquest/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("SCREENQUEST_LOG_LEVEL"))

	port := os.Getenv("SCREENQUEST_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("SCREENQUEST_DB_PATH")
	if dbPath == "" {
		dbPath = "screenquest.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("SCREENQUEST_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("SCREENQUEST_VAPID_PRIVATE_KEY"),
	}
	if pushCfg.VAPIDPublicKey == "" || pushCfg.VAPIDPrivateKey == "" {
		logger.Info("push notifications disabled: VAPID keys not set")
	}

	proofCfg := proof.Config{
		Endpoint:  os.Getenv("SCREENQUEST_S3_ENDPOINT"),
		Bucket:    os.Getenv("SCREENQUEST_S3_BUCKET"),
		Region:    os.Getenv("SCREENQUEST_S3_REGION"),
		AccessKey: os.Getenv("SCREENQUEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("SCREENQUEST_S3_SECRET_KEY"),
	}
	if proofCfg.Region == "" {
		proofCfg.Region = "auto"
	}

	srv := server.New(db, pushCfg, proofCfg, logger)

	// Periodically drop expired rate-limit windows
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("ScreenQuest running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
