package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mbourmaud/souk/internal/store"
)

var (
	activityFollow bool
	activityTail   int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "View the negotiation activity stream",
	Long: `View the per-transition activity stream the agents publish to Redis.

Examples:
  souk activity             # Show recent activity
  souk activity --tail 50   # Show the last 50 entries
  souk activity -f          # Follow activity in real-time`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Store.Redis.Addr,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w\nMake sure a simulation has run with the redis backend", err)
		}

		if activityFollow {
			return followActivity(ctx, rdb)
		}
		return printRecentActivity(ctx, rdb)
	},
}

func printRecentActivity(ctx context.Context, rdb *redis.Client) error {
	entries, err := rdb.XRevRange(ctx, store.DefaultActivityStream, "+", "-").Result()
	if err != nil {
		return fmt.Errorf("failed to read activity stream: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No activity found.")
		return nil
	}

	// Oldest first, limited to the tail.
	start := 0
	if len(entries) > activityTail {
		start = len(entries) - activityTail
	}
	for i := len(entries) - 1; i >= start; i-- {
		printActivityEntry(entries[i])
	}
	return nil
}

func followActivity(ctx context.Context, rdb *redis.Client) error {
	fmt.Println("Following activity... (Ctrl+C to stop)")
	lastID := "$"

	for {
		streams, err := rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{store.DefaultActivityStream, lastID},
			Block:   5 * time.Second,
			Count:   10,
		}).Result()

		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read activity stream: %w", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				printActivityEntry(msg)
				lastID = msg.ID
			}
		}
	}
}

func printActivityEntry(msg redis.XMessage) {
	timestamp := msg.Values["timestamp"]
	agent := msg.Values["agent"]
	action := msg.Values["action"]
	item := msg.Values["item"]
	amount := msg.Values["amount"]
	message := msg.Values["message"]

	var icon string
	switch action {
	case "initial_offer":
		icon = "🤝"
	case "counter_offer":
		icon = "↔️"
	case "accept":
		icon = "✅"
	case "end":
		icon = "🚪"
	default:
		icon = "•"
	}

	msgStr := fmt.Sprintf("%v", message)
	if len(msgStr) > 80 {
		msgStr = msgStr[:80] + "..."
	}

	fmt.Printf("[%s] %s %s %s %s $%v: %s\n", timestamp, icon, agent, action, item, amount, msgStr)
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().BoolVarP(&activityFollow, "follow", "f", false, "Follow activity output")
	activityCmd.Flags().IntVar(&activityTail, "tail", 100, "Number of entries to show from the end")
}
