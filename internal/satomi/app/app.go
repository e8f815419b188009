// Package app assembles the Satomi wallet assistant: storage, the Matrix
// front end, the market-data collaborators, the wallet backend, and the
// conversation engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/seijun/satomi/common/redact"
	"github.com/seijun/satomi/internal/satomi/engine"
	"github.com/seijun/satomi/internal/satomi/matrix"
	"github.com/seijun/satomi/internal/satomi/rates"
	"github.com/seijun/satomi/internal/satomi/reply"
	"github.com/seijun/satomi/internal/satomi/store"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

// Config holds application configuration.
type Config struct {
	DatabasePath string
	Matrix       matrix.Config

	// PriceURL and FeesURL override the public market-data endpoints, mainly
	// for self-hosted mirrors and tests. Empty selects the defaults.
	PriceURL string
	FeesURL  string

	// ResponseSeed seeds reply-variant selection. Zero means
	// time-of-start, so wording varies across runs.
	ResponseSeed int64

	// Wallet is the backing wallet. When nil the app runs against an
	// in-memory demo wallet seeded with DemoBalanceSats.
	Wallet          WalletBackend
	DemoBalanceSats int64
	DemoAddress     string
}

// WalletBackend combines the read and broadcast halves of a wallet.
type WalletBackend interface {
	wallet.SnapshotSource
	wallet.Broadcaster
}

// App is the assembled application.
type App struct {
	config *Config
	store  *store.Store
	matrix *matrix.Client
	engine *engine.Engine
}

// New creates the application.
func New(config *Config) (*App, error) {
	slog.Info("opening database", "path", config.DatabasePath)
	st, err := store.New(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Inject the DB so the client can persist the sync token across restarts.
	matrixCfg := config.Matrix
	matrixCfg.DB = st.DB()
	slog.Info("connecting to Matrix", "homeserver", matrixCfg.Homeserver)
	matrixClient, err := matrix.New(&matrixCfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize Matrix client: %w", err)
	}

	seed := config.ResponseSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	responder, err := reply.NewResponder(seed)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load response pools: %w", err)
	}

	backend := config.Wallet
	if backend == nil {
		addr := config.DemoAddress
		if addr == "" {
			addr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
		}
		balance := config.DemoBalanceSats
		if balance == 0 {
			balance = 5_000_000 // 0.05 BTC
		}
		slog.Warn("no wallet backend configured; using in-memory demo wallet",
			"balance_sats", balance)
		backend = wallet.NewMemWallet(balance, addr)
	}

	eng := engine.New(engine.Deps{
		Snapshots:   backend,
		Broadcaster: backend,
		Prices:      rates.NewPriceClient(config.PriceURL),
		Fees:        rates.NewFeeClient(config.FeesURL),
		Store:       st,
		Responder:   responder,
		Logger:      slog.Default(),
	})

	return &App{
		config: config,
		store:  st,
		matrix: matrixClient,
		engine: eng,
	}, nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("failed to start Matrix client: %w", err)
	}

	slog.Info("Satomi is running; press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop stops the application.
func (a *App) Stop() {
	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	slog.Info("closing database")
	a.store.Close()
}

// handleMessage feeds one Matrix message through the engine and replies in
// the same room.
func (a *App) handleMessage(ctx context.Context, evt *event.Event) {
	msgContent := evt.Content.AsMessage()
	if msgContent == nil {
		return
	}

	roomID := evt.RoomID.String()
	sender := evt.Sender.String()

	a.matrix.SetTyping(roomID, true, 10*time.Second)
	defer a.matrix.SetTyping(roomID, false, 0)

	answer, err := a.engine.HandleMessage(ctx, roomID, sender, msgContent.Body)
	if err != nil {
		slog.Error("message handling failed", "room", roomID,
			"err", redact.String(err.Error(), a.config.Matrix.AccessToken))
		return
	}
	if answer == "" {
		return
	}

	if err := a.matrix.SendMessage(roomID, answer); err != nil {
		// Homeserver errors can echo request URLs; keep the token out of logs.
		slog.Error("failed to send response", "room", roomID,
			"err", redact.String(err.Error(), a.config.Matrix.AccessToken))
	}
}
