// Command activate seeds the HelpCrunch settings record. Running it again is
// harmless: an existing record is left untouched.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"helpcrunch-live-chat/internal/app"
	"helpcrunch-live-chat/internal/config"
	"helpcrunch-live-chat/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	added, err := a.Plugin.Activate(ctx)
	if err != nil {
		logger.Error("activation failed", "error", err)
		os.Exit(1)
	}

	record, err := a.Settings.Record(ctx)
	if err != nil {
		logger.Error("failed to read settings", "error", err)
		os.Exit(1)
	}

	if added {
		fmt.Printf("Initialized %q settings (domain %s).\n", cfg.OptionName, record.EffectiveAPIDomain())
	} else {
		fmt.Printf("%q settings already present (integrated: %t).\n", cfg.OptionName, record.IsIntegrated())
	}
}
