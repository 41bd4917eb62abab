package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	newswatch "github.com/rsharma/newswatch"
	"github.com/rsharma/newswatch/internal/config"
	"github.com/rsharma/newswatch/internal/feeds"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "newswatch-web: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}

	feedURLs, err := feeds.LoadFeeds(cfg.Feeds.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "newswatch-web: %v\n", err)
		os.Exit(1)
	}

	engine, err := newswatch.NewEngine(newswatch.EngineConfig{
		DBPath:          cfg.Database.Path,
		APIKeys:         cfg.Gemini.APIKeys,
		Model:           cfg.Gemini.Model,
		FeedURLs:        feedURLs,
		MaxPerFeed:      cfg.Feeds.MaxPerFeed,
		FeedConcurrency: cfg.Feeds.Concurrency,
		Workers:         cfg.Analysis.Workers,
		MaxRetries:      cfg.Analysis.MaxRetries,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "newswatch-web: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newRouter(engine)

	srv := &http.Server{
		Addr:         cfg.Web.Addr,
		Handler:      logging(recovery(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("newswatch-web: listening on %s", cfg.Web.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("newswatch-web: %v", err)
		}
	}()

	<-done
	log.Println("newswatch-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("newswatch-web: shutdown error: %v", err)
	}
	log.Println("newswatch-web: stopped")
}
