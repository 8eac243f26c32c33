package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: combatlog-dump <monster-id>")
		os.Exit(1)
	}

	monsterID := os.Args[1]
	ctx := context.Background()

	// Set up Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test connection first
	if _, pingErr := client.Ping(ctx).Result(); pingErr != nil {
		log.Fatalf("Failed to connect to Redis: %v", pingErr)
	}
	defer func() {
		clientErr := client.Close()
		if clientErr != nil {
			log.Printf("Failed to close Redis connection: %v", clientErr)
		}
	}()

	entries, err := combatlog.NewRedis(client).ListByMonster(ctx, monsterID)
	if err != nil {
		log.Printf("Failed to read combat log: %v", err)
		return
	}

	fmt.Printf("Monster ID: %s\n", monsterID)
	fmt.Printf("Entries: %d\n", len(entries))

	for _, entry := range entries {
		fmt.Printf("  %s %-14s %-18s pack=%-6g", entry.CreatedAt.Format("15:04:05.000"), entry.Type, entry.Node, entry.PackValue)
		if entry.MeterMax > 0 {
			fmt.Printf(" meter=%g/%g", entry.MeterValue, entry.MeterMax)
		}
		if len(entry.Tags) > 0 {
			fmt.Printf(" tags=%s", strings.Join(entry.Tags, ","))
		}
		fmt.Println()
	}
}
