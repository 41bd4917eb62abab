package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	newswatch "github.com/rsharma/newswatch"
	"github.com/rsharma/newswatch/internal/config"
	"github.com/rsharma/newswatch/internal/feeds"
	"github.com/rsharma/newswatch/internal/output"
	"github.com/rsharma/newswatch/internal/storage"
)

var (
	configPath   string
	outputFormat string
	cfg          *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newswatch",
		Short: "Track Indian stock market news by keyword with AI sentiment analysis",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "human", "output format: json, text, human")

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(newsCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(importStocksCmd())
	rootCmd.AddCommand(stocksCmd())
	rootCmd.AddCommand(analyseCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newEngine() (*newswatch.Engine, error) {
	feedURLs, err := feeds.LoadFeeds(cfg.Feeds.File)
	if err != nil {
		return nil, err
	}
	return newswatch.NewEngine(newswatch.EngineConfig{
		DBPath:          cfg.Database.Path,
		APIKeys:         cfg.Gemini.APIKeys,
		Model:           cfg.Gemini.Model,
		FeedURLs:        feedURLs,
		MaxPerFeed:      cfg.Feeds.MaxPerFeed,
		FeedConcurrency: cfg.Feeds.Concurrency,
		Workers:         cfg.Analysis.Workers,
		MaxRetries:      cfg.Analysis.MaxRetries,
	})
}

func searchCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "search <keyword> [keyword...]",
		Short: "Search all feeds for keywords and queue matches for analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			results, err := engine.Search(context.Background(), args)
			if err != nil {
				return err
			}
			if wait {
				engine.WaitForAnalysis()
			}

			out := make([]output.SearchResult, len(results))
			for i, r := range results {
				out[i] = output.SearchResult{
					Keyword: r.Keyword, KeywordID: r.KeywordID,
					Matches: r.Matches, NewNews: r.NewNews,
				}
			}
			return formatter.OutputSearchResults(out)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "block until sentiment analysis finishes")
	return cmd
}

func newsCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "news <keyword-id>",
		Short: "List stored news for a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywordID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid keyword id %q", args[0])
			}
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			news, err := engine.NewsForKeyword(keywordID, limit, offset)
			if err != nil {
				return err
			}
			stored := make([]storage.News, len(news))
			for i, n := range news {
				stored[i] = storage.News{
					ID: n.ID, Title: n.Title, Link: n.Link,
					Summary: n.Summary, PublishedAt: n.PublishedAt,
					SentimentScore:       n.SentimentScore,
					SentimentConfidence:  n.SentimentConfidence,
					SentimentExplanation: n.SentimentExplanation,
				}
			}
			return formatter.OutputNewsList(stored)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum news to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of news to skip")
	return cmd
}

func progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <keyword-id>",
		Short: "Show analysis progress for a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keywordID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid keyword id %q", args[0])
			}
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			keyword, err := engine.GetKeyword(keywordID)
			if err != nil {
				return err
			}
			progress, err := engine.Progress(keywordID)
			if err != nil {
				return err
			}
			return formatter.OutputProgress(keyword.Name, &storage.Progress{
				TotalNews:    progress.TotalNews,
				AnalysedNews: progress.AnalysedNews,
			})
		},
	}
}

func importStocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-stocks <csv-file>",
		Short: "Import the stock universe from a symbol,name[,sector] CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			imported, err := engine.ImportStocks(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d stocks from %s\n", imported, args[0])
			return nil
		},
	}
}

func stocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "List the imported stock universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(output.Format(outputFormat))

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			stocks, err := engine.ListStocks()
			if err != nil {
				return err
			}
			stored := make([]storage.Stock, len(stocks))
			for i, s := range stocks {
				stored[i] = storage.Stock{ID: s.ID, Symbol: s.Symbol, Name: s.Name, SectorName: s.Sector}
			}
			return formatter.OutputStockList(stored)
		},
	}
}

func analyseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyse <news-id>",
		Short: "Re-run sentiment analysis for one news record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newsID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid news id %q", args[0])
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Reanalyze(newsID); err != nil {
				return err
			}
			engine.WaitForAnalysis()

			news, err := engine.GetNews(newsID)
			if err != nil {
				return err
			}
			if !news.Analysed {
				return fmt.Errorf("analysis did not produce a result for news %d", newsID)
			}
			fmt.Printf("Sentiment: %.3f (confidence %.2f)\n", news.SentimentScore, news.SentimentConfidence)
			if news.SentimentExplanation != "" {
				fmt.Println(news.SentimentExplanation)
			}
			return nil
		},
	}
}
