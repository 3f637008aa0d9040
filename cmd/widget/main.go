package main

import (
	"chat-wall/contract"
	"chat-wall/infrastructure/grpc/client"
	"chat-wall/infrastructure/nats"
	"chat-wall/infrastructure/storage"
	"chat-wall/repositories"
	"chat-wall/runtime"
	"chat-wall/runtime/workers"
	"chat-wall/ui"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Widget terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// The terminal belongs to the UI, logs go to a file
	logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return exitConfig, fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	log := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(config, log)
	if err != nil {
		return exitRuntime, err
	}
	defer closeStore()

	gateway := repositories.NewMessageGateway(store, log, config.WriteTimeout)
	orchestrator := runtime.NewOrchestrator(ctx, log, gateway,
		workers.NewSupervisor(log, config.RestartInterval), config.FailureBuffer, config.DrainTimeout)
	notifier := ui.NewNotifier()
	orchestrator.OnChange(notifier.Notify)

	feedCtx, cancelFeed := context.WithCancel(ctx)
	started := make(chan struct{})
	go func() {
		defer close(started)
		orchestrator.Start(feedCtx)
	}()

	model := ui.NewModel(orchestrator.View(), orchestrator.Controller(), notifier, config.Nickname, time.Local)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()

	cancelFeed()
	orchestrator.Stop()
	<-started
	log.Info("Widget stopped")
	if err != nil && ctx.Err() == nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// openStore picks the document store: an embedded badger when EMBEDDED_DB is
// set, the gRPC docstore otherwise. NATS_URL adds the NATS change feed on top.
func openStore(config Config, log *slog.Logger) (contract.DocumentStore, func(), error) {
	var (
		store   contract.DocumentStore
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if config.EmbeddedDB != "" {
		db, err := badger.Open(badger.DefaultOptions(config.EmbeddedDB).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		closers = append(closers, func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		})
		store = storage.NewBadgerStore(db, log, config.ProjectID, config.FeedBufferSize)
	} else {
		conn, err := grpc.NewClient(config.StoreAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("unable to reach docstore at %s: %w", config.StoreAddr, err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		store = client.NewDocumentClient(conn, config.ProjectID, log)
	}

	if config.NatsURL != "" {
		nc, err := nats.Connect(config.NatsURL, "widget-"+config.ProjectID)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, nc.Close)
		store = nats.NewChangeFeed(store, nc, config.ProjectID, config.FeedBufferSize, log)
	}
	return store, closeAll, nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
