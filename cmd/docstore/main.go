package main

import (
	"chat-wall/contract"
	"chat-wall/infrastructure/grpc/docstore"
	"chat-wall/infrastructure/grpc/server"
	"chat-wall/infrastructure/nats"
	"chat-wall/infrastructure/storage"
	"chat-wall/infrastructure/web"
	"chat-wall/repositories"
	"chat-wall/runtime/workers"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Docstore terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run serves the document store: gRPC for the widgets, HTTP for health and
// websocket listens, and optionally a NATS relay of every committed change.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	store := storage.NewBadgerStore(db, log, config.ProjectID, config.ListenerBufferSize)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. NATS relay under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	var workerList []contract.Worker
	if config.NatsURL != "" {
		nc, err := nats.Connect(config.NatsURL, "docstore-"+config.ProjectID)
		if err != nil {
			return exitRuntime, err
		}
		defer nc.Close()
		workerList = append(workerList, nats.NewChangeRelay(store, nc, config.ProjectID, repositories.MessagesCollection, log))
	}
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Add(workerList...).Run(ctx)
	}()

	// 5. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			server.UnaryLoggingInterceptor(log),
			server.ProjectInterceptor(config.ProjectID),
		),
		grpc.ChainStreamInterceptor(server.ProjectStreamInterceptor(config.ProjectID)),
	)
	docstore.RegisterDocumentServiceServer(s, server.NewDocumentServer(store, log))

	// 6. HTTP Server Setup
	httpServer := &http.Server{
		Handler:     web.NewServer(store, config.ProjectID, log).Router(),
		Addr:        fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		ReadTimeout: 15 * time.Second,
	}

	// Use an error channel to capture Serve() issues asynchronously.
	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			log.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-errChan:
		log.Error("Server failed", "error", err)
		code = exitRuntime
	}

	// 8. Final Cleanup (Graceful Shutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server forced to shutdown", "error", err)
	}
	// Listen streams never end on their own, Stop closes them
	s.Stop()
	stop()
	sup.Stop()
	<-supervisorDone
	log.Info("Docstore stopped cleanly")
	return code, err
}
