package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/daystreak/habitsync/internal/config"
	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/mirror"
	"github.com/daystreak/habitsync/internal/outbox"
	"github.com/daystreak/habitsync/internal/remote"
	syncpkg "github.com/daystreak/habitsync/internal/sync"
	"github.com/daystreak/habitsync/internal/tracker"
)

// app bundles the services a command needs: the local database, the
// remote client and the sync machinery around them.
type app struct {
	cfg     *config.Config
	db      *db.DB
	client  *remote.Client
	outbox  *outbox.Outbox
	mirror  *mirror.Store
	monitor *syncpkg.Monitor
	tracker *tracker.Tracker
}

// openApp opens the local database and wires the sync services. It
// probes the server once so the first write knows whether it can go
// straight to the network.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	database, err := db.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	client := remote.NewClient(cfg.ServerURL, cfg.Token)
	ob := outbox.New(database)
	store := mirror.New(database)
	rec := syncpkg.NewReconciler(ob, client, database)
	mon := syncpkg.NewMonitor(rec, ob, database, client,
		time.Duration(cfg.SyncIntervalSeconds)*time.Second)

	a := &app{
		cfg:     cfg,
		db:      database,
		client:  client,
		outbox:  ob,
		mirror:  store,
		monitor: mon,
		tracker: tracker.New(cfg.UserID, store, ob, client, mon),
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	a.monitor.SetOnline(client.Ping(probeCtx) == nil)

	return a, nil
}

// requireLogin fails early for commands that need an account.
func (a *app) requireLogin() error {
	if a.cfg.Token == "" || a.cfg.UserID == "" {
		return fmt.Errorf("not logged in, run: habitsync login")
	}
	return nil
}

func (a *app) Close() {
	a.monitor.Stop()
	_ = a.db.Close()
}
