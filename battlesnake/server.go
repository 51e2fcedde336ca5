package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brensch/snekguard/agent"
	"github.com/brensch/snekguard/store"
)

// Server answers the Battlesnake API with survival-search decisions.
type Server struct {
	cfg agent.Config
	// reserve is held back from the engine timeout for network and encoding.
	reserve time.Duration
	minimum time.Duration
	logger  *slog.Logger
	// decisions is optional; nil disables move history.
	decisions *store.BatchWriter
}

func NewServer(cfg agent.Config, reserve time.Duration, logger *slog.Logger, decisions *store.BatchWriter) *Server {
	return &Server{
		cfg:       cfg,
		reserve:   reserve,
		minimum:   20 * time.Millisecond,
		logger:    logger,
		decisions: decisions,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/end", s.handleEnd)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, InfoResponse{
		APIVersion: "1",
		Author:     "snekguard",
		Color:      "#3b7dd8",
		Head:       "default",
		Tail:       "default",
		Version:    "1.0.0",
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Info("game started",
		"game_id", req.Game.ID,
		"ruleset", req.Game.Ruleset.Name,
		"you", req.You.Name,
		"timeout_ms", req.Game.Timeout,
	)
	w.WriteHeader(http.StatusOK)
}

// budget is the search time for one move: the engine timeout when it sent
// one, else the configured budget, minus the reserve.
func (s *Server) budget(req *GameRequest) time.Duration {
	total := s.cfg.Budget + s.reserve
	if req.Game.Timeout > 0 {
		total = time.Duration(req.Game.Timeout) * time.Millisecond
	}
	b := total - s.reserve
	if b < s.minimum {
		b = s.minimum
	}
	return b
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state := toGameState(&req)
	deadline := start.Add(s.budget(&req))

	d, err := agent.Decide(state, deadline, s.cfg)
	if err != nil {
		s.logger.Error("decide failed", "game_id", req.Game.ID, "turn", req.Turn, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("move",
		"game_id", req.Game.ID,
		"turn", req.Turn,
		"move", d.Move,
		"candidates", d.Candidates,
		"survivors", d.Survivors,
		"depth", d.Depth,
		"fallback", d.Fallback,
		"nodes", d.Nodes,
		"elapsed", d.Elapsed,
	)

	if s.decisions != nil {
		row, err := store.NewDecisionRow(req.Game.ID, "live", state, d)
		if err == nil {
			err = s.decisions.Write(row)
		}
		if err != nil {
			s.logger.Warn("record decision failed", "game_id", req.Game.ID, "err", err)
		}
	}

	writeJSON(w, MoveResponse{Move: d.Move, Shout: shout(d)})
}

func shout(d agent.Decision) string {
	if d.Fallback {
		return fmt.Sprintf("cornered at depth %d", d.Depth)
	}
	return fmt.Sprintf("%d safe at depth %d", len(d.Survivors), d.Depth)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	youAlive := false
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			youAlive = true
			break
		}
	}
	result := "lost"
	if youAlive {
		result = "won"
	} else if len(req.Board.Snakes) == 0 {
		result = "draw"
	}

	s.logger.Info("game ended", "game_id", req.Game.ID, "turn", req.Turn, "result", result)
	if s.decisions != nil {
		if err := s.decisions.Flush(); err != nil {
			s.logger.Warn("flush decisions failed", "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}
