package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"linkup/backend/internal/auth"
	"linkup/backend/internal/config"
	"linkup/backend/internal/models"
	"linkup/backend/internal/storage"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  create-user <username> [first_name] [last_name]")
	fmt.Println("  issue-token <username>")
	fmt.Println("  link-telegram <username> <chat_id>")
	fmt.Println("  set-push <username> on|off")
	fmt.Println("  subscribe <username> <topic>")
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	// No redis needed for the admin CLI.
	store := storage.NewStorageService(db, nil, zap.NewNop())

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create-user":
		if len(os.Args) < 3 {
			usage()
		}
		user := &models.User{Username: os.Args[2]}
		if len(os.Args) > 3 {
			user.FirstName = os.Args[3]
		}
		if len(os.Args) > 4 {
			user.LastName = os.Args[4]
		}
		if err := store.SaveUser(user); err != nil {
			log.Fatalf("failed to create user: %v", err)
		}
		fmt.Printf("User %s created with id %s\n", user.Username, user.ID)

	case "issue-token":
		if len(os.Args) != 3 {
			usage()
		}
		user := mustGetUser(store, os.Args[2])
		authSvc := auth.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer, store)
		token, err := authSvc.IssueToken(user.ID)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)

	case "link-telegram":
		if len(os.Args) != 4 {
			usage()
		}
		chatID, err := strconv.ParseInt(os.Args[3], 10, 64)
		if err != nil {
			log.Fatalf("invalid chat id %q", os.Args[3])
		}
		user := mustGetUser(store, os.Args[2])
		user.TelegramChatID = chatID
		if err := store.SaveUser(user); err != nil {
			log.Fatalf("failed to link telegram chat: %v", err)
		}
		fmt.Printf("User %s linked to telegram chat %d\n", user.Username, chatID)

	case "set-push":
		if len(os.Args) != 4 || (os.Args[3] != "on" && os.Args[3] != "off") {
			usage()
		}
		user := mustGetUser(store, os.Args[2])
		user.PushOptIn = os.Args[3] == "on"
		if err := store.SaveUser(user); err != nil {
			log.Fatalf("failed to update push setting: %v", err)
		}
		fmt.Printf("Push notifications for %s: %s\n", user.Username, os.Args[3])

	case "subscribe":
		if len(os.Args) != 4 {
			usage()
		}
		user := mustGetUser(store, os.Args[2])
		topic := os.Args[3]
		for _, t := range user.Topics {
			if t == topic {
				fmt.Printf("User %s already subscribed to %s\n", user.Username, topic)
				return
			}
		}
		user.Topics = append(pq.StringArray{}, append(user.Topics, topic)...)
		if err := store.SaveUser(user); err != nil {
			log.Fatalf("failed to subscribe user: %v", err)
		}
		fmt.Printf("User %s subscribed to %s\n", user.Username, topic)

	default:
		usage()
	}
}

func mustGetUser(store *storage.Service, username string) *models.User {
	user, err := store.GetUserByUsername(username)
	if err != nil {
		log.Fatalf("failed to load user %q: %v", username, err)
	}
	return user
}
