// Package main serves the Battlesnake API. Each /move runs the survival
// search within the engine's timeout and answers with a move that avoids
// certain death whenever one exists.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/logging"
	"github.com/brensch/snekguard/store"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	defaults := agent.DefaultConfig()

	listen := fs.String("listen", getEnvOrDefault("LISTEN", ":8080"), "HTTP listen address")
	budget := fs.Duration("budget", getEnvDurationOrDefault("BUDGET", defaults.Budget), "Search budget when the engine sends no timeout")
	reserve := fs.Duration("reserve", getEnvDurationOrDefault("RESERVE", 150*time.Millisecond), "Time held back from the engine timeout for latency")
	metric := fs.String("metric", getEnvOrDefault("METRIC", defaults.Metric.String()), "Distance metric: manhattan, euclidean or chebyshev")
	radius := fs.Float64("branch-radius", getEnvFloatOrDefault("BRANCH_RADIUS", defaults.BranchRadius), "Only branch opponents within this distance of our head (0 = all)")
	worstCase := fs.Bool("worst-case", getEnvBoolOrDefault("WORST_CASE", defaults.WorstCase), "Treat a move as lethal if any opponent reply kills us")
	maxDepth := fs.Int("max-depth", getEnvIntOrDefault("MAX_DEPTH", defaults.MaxDepth), "Iterative deepening ceiling")
	parallel := fs.Bool("parallel", getEnvBoolOrDefault("PARALLEL", false), "Evaluate candidate moves concurrently")
	decisionsDir := fs.String("decisions-dir", getEnvOrDefault("DECISIONS_DIR", ""), "Write decision parquet here (empty disables)")
	logFormat := fs.String("log-format", getEnvOrDefault("LOG_FORMAT", "pretty"), "Log format: pretty, json or text")
	logLevel := fs.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	logger, err := logging.New(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	m, err := game.ParseMetric(*metric)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := agent.Config{
		Budget:       *budget,
		Metric:       m,
		BranchRadius: *radius,
		WorstCase:    *worstCase,
		MaxDepth:     *maxDepth,
		Parallel:     *parallel,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var decisions *store.BatchWriter
	if *decisionsDir != "" {
		decisions, err = store.NewBatchWriter(*decisionsDir, store.DefaultRowsPerFile)
		if err != nil {
			log.Fatalf("Failed to open decision writer: %v", err)
		}
	}

	server := NewServer(cfg, *reserve, logger, decisions)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("battlesnake server listening",
		"addr", *listen,
		"metric", cfg.Metric,
		"branch_radius", cfg.BranchRadius,
		"worst_case", cfg.WorstCase,
		"max_depth", cfg.MaxDepth,
		"decisions_dir", *decisionsDir,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	if decisions != nil {
		if err := decisions.Close(); err != nil {
			log.Printf("close decisions: %v", err)
		}
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
