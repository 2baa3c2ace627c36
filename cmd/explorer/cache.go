package main

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/graphql-explorer/internal/config"
	"github.com/Sternrassler/graphql-explorer/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newCacheCmd(cfg func() *config.AppConfig) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the response cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "flush [endpoint...]",
		Short: "Drop cached responses of the named endpoints (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flushCache(cmd, cfg(), args)
		},
	})

	return cacheCmd
}

func flushCache(cmd *cobra.Command, cfg *config.AppConfig, names []string) error {
	if cfg.Redis.URL == "" {
		return errors.New("no redis.url configured; nothing is cached")
	}

	if len(names) == 0 {
		for _, ep := range cfg.Endpoints.All() {
			names = append(names, ep.Name)
		}
	}
	for _, name := range names {
		if _, ok := cfg.Endpoints.FindByName(name); !ok {
			return fmt.Errorf("no endpoint named %q", name)
		}
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	manager := cache.NewManager(client)
	for _, name := range names {
		removed, err := manager.InvalidateEndpoint(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("flush %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d entries removed\n", nameStyle.Render(name), removed)
	}
	return nil
}
