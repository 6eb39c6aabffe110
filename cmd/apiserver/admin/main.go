package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"social-go/internal/config"
	"social-go/internal/events"
	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/realtime"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/storage/memory"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  admin reconcile [--limit N]                          replay open repair journal entries")
	fmt.Fprintln(os.Stderr, "  admin rebuild-reactions --kind posts|comments|replies --id ID")
	fmt.Fprintln(os.Stderr, "  admin rebuild-friends --user ID                      rebuild friendIds and friend request ids")
	fmt.Fprintln(os.Stderr, "  admin rebuild-user --user ID                         rebuild every id list of one user")
}

// nopEmitter swallows realtime pushes; repairs never notify anyone.
type nopEmitter struct{}

func (nopEmitter) EmitToRoom(context.Context, string, string, any) error { return nil }

var _ realtime.Emitter = nopEmitter{}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})
	log := logging.WithComponent("admin")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg, memory.NewStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close(context.Background())

	bus := events.NewSyncBus()
	friends := services.NewFriendService(store, bus)
	notifications := services.NewNotificationService(store, nopEmitter{})
	engagement := services.NewEngagementService(store, services.NewTargetResolver(store))

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "reconcile":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 0, "maximum entries to process, 0 for all")
		_ = fs.Parse(args)

		report, err := services.NewReconciler(store.Journal, friends, notifications, engagement).Run(ctx, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("reconcile failed")
		}
		fmt.Printf("resolved=%d failed=%d skipped=%d\n", report.Resolved, report.Failed, report.Skipped)
		if report.Failed > 0 {
			os.Exit(1)
		}

	case "rebuild-reactions":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kindArg := fs.String("kind", "", "reactable kind: posts, comments or replies")
		id := fs.String("id", "", "reactable id")
		_ = fs.Parse(args)

		kind, err := models.ParseSourceType(*kindArg)
		if err != nil || !models.ValidID(*id) {
			usage()
			os.Exit(2)
		}
		if err := engagement.RebuildReactionState(ctx, services.TargetRef{Kind: kind, ID: *id}); err != nil {
			log.Fatal().Err(err).Msg("rebuild failed")
		}
		fmt.Println("reaction state rebuilt")

	case "rebuild-friends", "rebuild-user":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		userID := fs.String("user", "", "user id")
		_ = fs.Parse(args)
		if !models.ValidID(*userID) {
			usage()
			os.Exit(2)
		}

		steps := []func(context.Context, string) error{friends.RebuildFriendIDs, friends.RebuildFriendRequestIDs}
		if cmd == "rebuild-user" {
			steps = append(steps, notifications.RebuildNotificationIDs, engagement.RebuildUserReactionIDs)
		}
		for _, step := range steps {
			if err := step(ctx, *userID); err != nil {
				log.Fatal().Err(err).Str("user_id", *userID).Msg("rebuild failed")
			}
		}
		fmt.Println("user lists rebuilt")

	default:
		usage()
		os.Exit(2)
	}
}
