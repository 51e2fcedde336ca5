// Command arena plays survival-search agents against each other on the local
// referee, shows progress in a terminal dashboard and stores every decision.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekguard/game"
	"github.com/brensch/snekguard/logging"
	"github.com/brensch/snekguard/selfplay"
	"github.com/brensch/snekguard/store"
)

type gameWriteRequest struct {
	rows []store.DecisionRow
}

func main() {
	outDir := flag.String("out-dir", "data/arena", "Output directory for decision parquet batches")
	workers := flag.Int("workers", 4, "Number of concurrent games")
	maxGames := flag.Int64("max-games", 0, "If > 0, stop after this many games (across all workers)")
	players := flag.Int("players", 4, "Snakes per game")
	size := flag.Int("size", 11, "Board width and height")
	wrapped := flag.Bool("wrapped", false, "Play the wrapped ruleset")
	maxTurns := flag.Int("max-turns", 500, "Turn cap per game")
	budget := flag.Duration("budget", 50*time.Millisecond, "Search budget per decision")
	metric := flag.String("metric", "manhattan", "Distance metric: manhattan, euclidean or chebyshev")
	headless := flag.Bool("headless", false, "Log progress instead of showing the dashboard")
	logFormat := flag.String("log-format", "pretty", "Log format: pretty, json or text")
	flag.Parse()

	cfg := selfplay.DefaultConfig()
	cfg.Players = *players
	cfg.Width, cfg.Height = int32(*size), int32(*size)
	cfg.MaxTurns = *maxTurns
	cfg.Agent.Budget = *budget
	if *wrapped {
		cfg.Ruleset = game.RulesetWrapped
	}
	m, err := game.ParseMetric(*metric)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.Agent.Metric = m
	if err := cfg.Agent.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// The dashboard owns the terminal, so logs go to a file unless headless.
	logOut := os.Stderr
	if !*headless {
		f, err := os.OpenFile("arena.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, *logFormat, "info")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	writer, err := store.NewBatchWriter(*outDir, store.DefaultRowsPerFile)
	if err != nil {
		log.Fatalf("Failed to open decision writer: %v", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	updates := make(chan tea.Msg, *workers*4)
	writeReqs := make(chan gameWriteRequest, *workers*4)

	writerDone := make(chan struct{})
	go func() {
		parquetWriterLoop(logger, writer, writeReqs)
		close(writerDone)
	}()

	var totalGames atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *workers; i++ {
		workerID := i
		g.Go(func() error {
			for gctx.Err() == nil {
				n := totalGames.Add(1)
				if *maxGames > 0 && n > *maxGames {
					cancel()
					return nil
				}

				// Worker 0's game is the one shown on the dashboard.
				var onTurn func(selfplay.Turn)
				if workerID == 0 {
					onTurn = func(t selfplay.Turn) {
						select {
						case updates <- TurnUpdate{t}:
						default:
						}
					}
				}

				gameID := fmt.Sprintf("arena_%d_%d", time.Now().UnixNano(), workerID)
				seed := time.Now().UnixNano() + int64(workerID)*1000003
				res, rows, err := selfplay.PlayGame(gctx, gameID, seed, cfg, onTurn)
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("worker %d: %w", workerID, err)
				}

				writeReqs <- gameWriteRequest{rows: rows}
				logger.Info("game finished",
					"worker", workerID,
					"game_id", gameID,
					"winner", res.WinnerId,
					"turns", res.Turns,
					"fallbacks", res.Fallbacks,
					"surprises", res.Surprises,
				)
				select {
				case updates <- GameUpdate{WorkerID: workerID, Result: res, Rows: len(rows)}:
				default:
				}
			}
			return nil
		})
	}

	workersDone := make(chan error, 1)
	go func() {
		err := g.Wait()
		close(writeReqs)
		<-writerDone
		close(updates)
		workersDone <- err
	}()

	if *headless {
		for msg := range updates {
			if u, ok := msg.(GameUpdate); ok {
				log.Printf("Worker %d: Winner %s, Turns %d, Rows %d", u.WorkerID, u.Result.WinnerId, u.Result.Turns, u.Rows)
			}
		}
	} else {
		p := tea.NewProgram(initialModel(updates), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Printf("dashboard: %v", err)
		}
		cancel()
		// Drain so workers blocked on a full channel can exit.
		go func() {
			for range updates {
			}
		}()
	}

	if err := <-workersDone; err != nil {
		log.Printf("arena stopped: %v", err)
	}
	if err := writer.Close(); err != nil {
		log.Printf("close decisions: %v", err)
	}
	log.Printf("Shutdown complete: %d decision files in %s", len(writer.Published()), *outDir)
}

// parquetWriterLoop appends each finished game's rows to the batch writer.
func parquetWriterLoop(logger *slog.Logger, w *store.BatchWriter, in <-chan gameWriteRequest) {
	for req := range in {
		if len(req.rows) == 0 {
			continue
		}
		if err := w.Write(req.rows...); err != nil {
			logger.Error("write decisions failed", "rows", len(req.rows), "err", err)
		}
	}
	if err := w.Flush(); err != nil {
		logger.Error("final flush failed", "err", err)
	}
}
