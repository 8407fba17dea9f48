package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newsflow/internal/cache"
	"newsflow/internal/config"
	"newsflow/internal/history"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List cached crawl results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		entries := cache.NewStore(cfg.App.CacheDir).Entries()
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %4d articles  %s old\n", e.Key, e.Articles, e.Age.Round(time.Second))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached crawl results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		removed := cache.NewStore(cfg.App.CacheDir).Clear()
		fmt.Printf("removed %d cache entries\n", removed)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the cross-run seen-set",
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show seen-set statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		ttl := config.Duration(cfg.History.TTL)
		st := history.NewStore(cfg.App.CacheDir).Stats(ttl)
		fmt.Printf("entries: %d total, %d active, %d expired (ttl %s)\n",
			st.Total, st.Active, st.Expired, ttl)
		if st.OldestAge > 0 {
			fmt.Printf("oldest:  %s ago\n", st.OldestAge.Round(time.Second))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the seen-set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := history.NewStore(cfg.App.CacheDir).Clear(); err != nil {
			return err
		}
		fmt.Println("history cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	historyCmd.AddCommand(historyStatsCmd, historyClearCmd)
	rootCmd.AddCommand(cacheCmd, historyCmd)
}
