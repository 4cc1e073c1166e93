package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adfharrison1/go-docbatch/pkg/batch"
	"github.com/adfharrison1/go-docbatch/pkg/server"
	"github.com/adfharrison1/go-docbatch/pkg/storage"
	"github.com/adfharrison1/go-docbatch/pkg/writer"
)

func main() {
	// Command line flags
	var (
		port           = flag.String("port", "8080", "Server port")
		dataFile       = flag.String("data-file", "docbatch_data.docb", "Data file path for persistence")
		dataDir        = flag.String("data-dir", ".", "Data directory for storage")
		logsDir        = flag.String("logs-dir", "./logs", "Directory for operation log reports")
		backgroundSave = flag.Duration("background-save", 0, "Background save interval (e.g., 5m, 30s). Set to 0 to disable.")
		workers        = flag.Int("workers", writer.DefaultWorkers, "Write channel worker pool size")
		writeRate      = flag.Float64("write-rate", 0, "Write channel rate limit in ops/sec. Set to 0 to disable.")
		showHelp       = flag.Bool("help", false, "Show help message")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ndocbatch runs filter-driven batch mutations over an in-memory document store.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # Start with defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090 -workers 16            # Custom port and pool size\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -write-rate 500 -background-save 5m\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSafety Note:\n")
		fmt.Fprintf(os.Stderr, "  Without -background-save, data is only saved on graceful shutdown.\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Build storage options based on flags
	var storageOptions []storage.StorageOption

	if *dataDir != "." {
		storageOptions = append(storageOptions, storage.WithDataDir(*dataDir))
		log.Printf("INFO: Using data directory: %s", *dataDir)
	}

	if *backgroundSave > 0 {
		storageOptions = append(storageOptions, storage.WithBackgroundSave(*backgroundSave))
		log.Printf("INFO: Background save enabled: every %v", *backgroundSave)
	} else {
		log.Printf("WARN: Background save disabled - data only saved on graceful shutdown")
	}

	var channelOptions []writer.Option
	if *workers != writer.DefaultWorkers {
		channelOptions = append(channelOptions, writer.WithWorkers(*workers))
		log.Printf("INFO: Write channel workers set to: %d", *workers)
	}
	if *writeRate > 0 {
		channelOptions = append(channelOptions, writer.WithRateLimit(*writeRate, *workers))
		log.Printf("INFO: Write rate limited to %.0f ops/sec", *writeRate)
	}
	if len(channelOptions) > 0 {
		storageOptions = append(storageOptions, storage.WithChannelOptions(channelOptions...))
	}

	srv := server.NewServer(storageOptions, batch.WithLogDir(*logsDir))
	defer srv.Shutdown()

	log.Printf("INFO: Loading data from: %s", *dataFile)
	srv.InitDB(*dataFile)

	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Starting docbatch server on :%s", *port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Save database before shutdown
	log.Printf("INFO: Saving data to: %s", *dataFile)
	srv.SaveDB(*dataFile)

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
