// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the coin selection boundary over HTTP with JSON request
// and response bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/coinselect/bindings"
	"github.com/blinklabs-io/coinselect/journal"
	"github.com/blinklabs-io/coinselect/utxo"
)

const (
	defaultListenAddr = ":8090"
	maxRequestBody    = 8 << 20 // 8 MB
)

// UtxoStore is the candidate source used when a selection request carries no
// UTxOs
type UtxoStore interface {
	All() ([]utxo.UnspentOutput, error)
	Put(utxos ...utxo.UnspentOutput) error
	Delete(refs ...utxo.Ref) error
}

// SelectionLog lists journaled selections
type SelectionLog interface {
	List(ctx context.Context, opts journal.ListOptions) ([]journal.Selection, error)
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Logger   *slog.Logger
	Boundary *bindings.Boundary
	// Snapshot and Journal are optional
	Snapshot      UtxoStore
	Journal       SelectionLog
	ListenAddress string
}

// Server is the coin selection REST API server.
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

// NewServer creates a new API server instance.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Boundary == nil {
		return nil, errors.New("api: Boundary is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddr
	}
	return &Server{
		config: cfg,
		logger: cfg.Logger.With("component", "api"),
	}, nil
}

// Handler returns the route multiplexer without starting a listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Start starts the HTTP server in a background goroutine. The server is shut
// down when ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer = server
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.mu.Unlock()
		if srv != nil {
			s.logger.Debug("context cancelled, shutting down API server")
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.logger.Info("API listener started on " + s.Addr().String())
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv != nil {
		s.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}
	return nil
}

// Addr returns the bound listener address, which differs from the configured
// one when listening on port 0
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

func (s *Server) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.mu.Lock()
	s.listenAddr = ln.Addr()
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /coin-selection", s.handleCoinSelection)
	mux.HandleFunc("POST /transaction/utxos", s.handleTransactionUtxos)
	mux.HandleFunc("POST /value/{op}", s.handleValueOp)
	mux.HandleFunc("GET /snapshot/utxos", s.handleSnapshotList)
	mux.HandleFunc("POST /snapshot/utxos", s.handleSnapshotPut)
	mux.HandleFunc("DELETE /snapshot/utxos/{ref}", s.handleSnapshotDelete)
	mux.HandleFunc("GET /selections", s.handleSelections)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, apiErr *Error) {
	s.writeJSON(w, errorStatus(apiErr), apiErr)
}

// decodeRequest decodes a JSON request body into dst.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
