package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func daemonCmd() *cobra.Command {
	var (
		interval time.Duration
		keywords []string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Re-search keywords on a timer and analyse new matches",
		Long: `Continuously search the feeds for the given keywords (or every
previously searched keyword when none are given) and queue new matches for
sentiment analysis. Handles SIGINT/SIGTERM for graceful shutdown; the
current cycle finishes before exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			log.Printf("newswatch daemon: starting with interval %s", interval)

			cycle := 1
			for {
				start := time.Now()

				terms := keywords
				if len(terms) == 0 {
					tracked, err := engine.Keywords()
					if err != nil {
						log.Printf("newswatch daemon: cycle %d: failed to list keywords: %v", cycle, err)
					}
					for _, k := range tracked {
						terms = append(terms, k.Name)
					}
				}

				if len(terms) == 0 {
					log.Printf("newswatch daemon: cycle %d: no keywords to search", cycle)
				} else {
					results, err := engine.Search(ctx, terms)
					if err != nil {
						log.Printf("newswatch daemon: cycle %d error: %v", cycle, err)
					} else {
						created := 0
						for _, r := range results {
							created += r.NewNews
						}
						log.Printf("newswatch daemon: cycle %d: %d keywords, %d new articles, took %s",
							cycle, len(results), created, time.Since(start).Round(time.Millisecond))
					}
				}

				cycle++

				timer := time.NewTimer(interval)
				select {
				case <-sig:
					timer.Stop()
					log.Println("newswatch daemon: received shutdown signal, exiting")
					return nil
				case <-timer.C:
				}
			}
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 15*time.Minute, "duration between search cycles (e.g. 5m, 1h)")
	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", nil, "keywords to search each cycle (default: all tracked keywords)")

	// Reject empty strings sneaking in via -k ""
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		var cleaned []string
		for _, k := range keywords {
			if strings.TrimSpace(k) != "" {
				cleaned = append(cleaned, k)
			}
		}
		keywords = cleaned
		return nil
	}
	return cmd
}
