package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/api"
	"github.com/ZentaChain/fcm-receiver/pkg/config"
	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
	"github.com/ZentaChain/fcm-receiver/pkg/logging"
	"github.com/ZentaChain/fcm-receiver/pkg/network"
	"github.com/ZentaChain/fcm-receiver/pkg/storage"
)

const pruneInterval = time.Hour

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	credsPath  = flag.String("credentials", "", "Read credentials from this JSON file instead of the database")
	credsName  = flag.String("name", storage.DefaultCredentialsName, "Credentials name in the database")
	enableAPI  = flag.Bool("api", false, "Enable the HTTP API regardless of config")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fcm-receiver: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *enableAPI {
		cfg.API.Enabled = true
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return err
	}
	defer logging.Install(logger)()
	defer logger.Sync()

	db, err := storage.Open(cfg.Storage.Path, cfg.Storage.NotificationTTL.Duration)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	creds, err := loadCredentials(db)
	if err != nil {
		return err
	}

	netCfg := cfg.Network()
	netCfg.Logger = logger.Named("network")
	client, err := network.NewClient(*creds, netCfg)
	if err != nil {
		return err
	}

	if client.PersistentIDs, err = db.LoadPersistentIDs(); err != nil {
		return err
	}
	logger.Info("starting receiver",
		zap.String("android_id", creds.GCM.AndroidID),
		zap.Int("persistent_ids", len(client.PersistentIDs)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var inbox api.Inbox = db
	var memory *api.MemoryInbox
	if !cfg.Storage.History {
		memory = api.NewMemoryInbox(cfg.APIServer().HistoryLimit)
		inbox = memory
	}

	apiErr := make(chan error, 1)
	if cfg.API.Enabled {
		apiCfg := cfg.APIServer()
		apiCfg.Logger = logger.Named("api")
		server := api.NewServer(client, inbox, apiCfg)
		go func() { apiErr <- server.Start(ctx) }()
	} else {
		close(apiErr)
	}

	if cfg.Storage.History {
		go pruneLoop(ctx, db, logger)
	}

	listenErr := client.Listen(ctx, func(payload []byte) {
		var persistentID string
		if n := len(client.PersistentIDs); n > 0 {
			persistentID = client.PersistentIDs[n-1]
		}

		fmt.Println(string(payload))

		if memory != nil {
			memory.Add(persistentID, payload)
		} else if err := db.SaveNotification(&storage.Notification{PersistentID: persistentID, Payload: payload}); err != nil {
			logger.Error("failed to store notification", zap.Error(err))
		}
		if err := db.SavePersistentIDs(client.PersistentIDs); err != nil {
			logger.Error("failed to store persistent ids", zap.Error(err))
		}
	})
	if errors.Is(listenErr, context.Canceled) {
		listenErr = nil
	}
	stop()

	logger.Info("receiver stopped", zap.Int64("received", client.Stats().Received))
	return multierr.Combine(
		listenErr,
		db.SavePersistentIDs(client.PersistentIDs),
		<-apiErr,
	)
}

func loadCredentials(db *storage.DB) (*credentials.Credentials, error) {
	var (
		creds *credentials.Credentials
		err   error
	)
	if *credsPath != "" {
		creds, err = credentials.Load(*credsPath)
	} else {
		creds, err = db.LoadCredentials(*credsName)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no credentials named %q, run fcm-register first", *credsName)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

func pruneLoop(ctx context.Context, db *storage.DB, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			pruned, err := db.PruneExpired(now)
			if err != nil {
				logger.Warn("failed to prune notifications", zap.Error(err))
				continue
			}
			if pruned > 0 {
				logger.Debug("pruned notifications", zap.Int64("count", pruned))
			}
		}
	}
}
