package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"awaken/internal/config"
	"awaken/internal/services"
	"awaken/internal/utils"
)

func main() {
	storeKey := flag.Bool("store-openrouter-key", false, "read an OpenRouter key from stdin, store it in the system keyring and exit")
	flag.Parse()

	if err := utils.LoadEnv(); err != nil {
		logrus.WithError(err).Warn("could not load .env")
	}

	keys := openKeyring()
	if *storeKey {
		if err := storeAPIKey(keys); err != nil {
			logrus.WithError(err).Fatal("store key")
		}
		logrus.Info("key stored")
		return
	}

	var source config.KeySource
	if keys != nil {
		source = keys
	}
	cfg, err := config.Load(os.Getenv, source, logrus.WithField("component", "config"))
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	cfg.ConfigureLogger(logrus.StandardLogger())
	installEventLog(logrus.StandardLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.WithField("service", "awaken")
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Error("server stopped")
		app.Close()
		os.Exit(1)
	}
}

// openKeyring returns nil when no keyring backend is available.
func openKeyring() *services.KeyringService {
	ring, err := services.OpenKeyring()
	if err != nil {
		logrus.WithError(err).Debug("system keyring unavailable")
		return nil
	}
	return services.NewKeyringService(ring)
}

func storeAPIKey(keys *services.KeyringService) error {
	if keys == nil {
		return errors.New("no keyring backend available")
	}
	fmt.Fprint(os.Stderr, "OpenRouter API key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return errors.New("empty key")
	}
	return keys.StoreApiKey(config.KeyProvider, []byte(key))
}
