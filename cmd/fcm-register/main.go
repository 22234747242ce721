package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ZentaChain/fcm-receiver/pkg/config"
	"github.com/ZentaChain/fcm-receiver/pkg/credentials"
	"github.com/ZentaChain/fcm-receiver/pkg/logging"
	"github.com/ZentaChain/fcm-receiver/pkg/register"
	"github.com/ZentaChain/fcm-receiver/pkg/storage"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	senderID   = flag.String("sender", "", "Sender id (overrides register.sender_id)")
	outPath    = flag.String("out", "", "Also write credentials to this JSON file")
	credsName  = flag.String("name", storage.DefaultCredentialsName, "Credentials name in the database")
	force      = flag.Bool("force", false, "Replace existing credentials")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fcm-register: %v\n", err)
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
	if *senderID != "" {
		cfg.Register.SenderID = *senderID
	}
	if cfg.Register.SenderID == "" {
		return errors.New("sender id is required (-sender or register.sender_id)")
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

	if !*force {
		if _, err := db.LoadCredentials(*credsName); err == nil {
			return fmt.Errorf("credentials %q already exist, use -force to replace them", *credsName)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regCfg := cfg.RegisterClient()
	regCfg.Logger = logger.Named("register")
	creds, err := register.NewRegistrar(regCfg).Register(ctx, cfg.Register.SenderID, cfg.Register.ServerKey)
	if err != nil {
		return err
	}

	// A new identity starts with no acknowledged messages.
	if err := multierr.Combine(
		db.SaveCredentials(*credsName, creds),
		db.SavePersistentIDs(nil),
	); err != nil {
		return err
	}
	logger.Info("registered",
		zap.String("name", *credsName),
		zap.String("android_id", creds.GCM.AndroidID))

	if *outPath != "" {
		return credentials.Save(*outPath, creds)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(creds)
}
