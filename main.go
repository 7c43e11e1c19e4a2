// uniqueizer/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"uniqueizer/api"
	"uniqueizer/archive"
	"uniqueizer/config"
	"uniqueizer/ffmpeg"
	"uniqueizer/task"
)

func main() {
	// 1. Load configuration and prepare the staging/output areas
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("Failed to prepare directories: %v", err)
	}
	log.Printf("Upload directory: %s", cfg.UploadDir)
	log.Printf("Output directory: %s", cfg.OutputDir)
	log.Printf("Retention age: %s, sweep interval: %s", cfg.RetentionAge, cfg.CleanupInterval)

	// 2. Initialize the encoder runner (verifies the ffmpeg binary)
	runner, err := ffmpeg.NewRunner(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ffmpeg runner: %v", err)
	}

	// 3. Initialize the task manager
	taskManager, err := task.NewManager(cfg, runner, archive.NewBuilder())
	if err != nil {
		log.Fatalf("Failed to initialize task manager: %v", err)
	}

	// 4. Set up router and server
	router := api.SetupRouter(taskManager, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 5. Start background services and HTTP server
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskManager.Start(ctx)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 6. Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	stop()
	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	// In-flight runs see the canceled context, abort their encodes, and
	// land their tasks in a terminal state before we exit.
	taskManager.Wait()

	log.Println("Server exiting")
}
