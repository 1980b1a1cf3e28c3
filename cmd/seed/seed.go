// Command seed creates the first administrator account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"helpcrunch-live-chat/internal/config"
	"helpcrunch-live-chat/internal/id"
	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/services"
	"helpcrunch-live-chat/utils"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "administrator email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "administrator password (min 8 characters)")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "usage: seed -email admin@example.com -password <at least 8 characters>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(cfg)

	if err := id.Init(cfg.SnowflakeNode); err != nil {
		logger.Error("invalid snowflake node", "node", cfg.SnowflakeNode, "error", err)
		os.Exit(1)
	}

	client, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	hash, err := utils.HashPassword(*password, cfg.BcryptCost)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	user := &models.User{
		ID:           id.New(),
		Email:        *email,
		DisplayName:  *name,
		PasswordHash: hash,
		Role:         models.RoleAdministrator,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := services.NewMongoUserStore(client.Database(cfg.DBName))
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			fmt.Printf("An account for %s already exists.\n", *email)
			return
		}
		logger.Error("failed to create administrator", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Created administrator %s (id %d).\n", user.Email, user.ID)
}
