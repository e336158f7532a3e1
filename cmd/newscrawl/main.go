package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/agriwatch/newscrawler/internal/config"
	"github.com/agriwatch/newscrawler/internal/crawler"
	"github.com/agriwatch/newscrawler/internal/logger"
	"github.com/agriwatch/newscrawler/internal/metrics"
	"github.com/agriwatch/newscrawler/internal/snapshot"
	"github.com/agriwatch/newscrawler/internal/sources"
)

func main() {
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	reg, err := sources.Load(cfg.SourcesConfigPath)
	if err != nil {
		logger.Warn("could not load sources config, using defaults",
			"path", cfg.SourcesConfigPath, "error", err)
		reg = sources.Default()
	}

	store := snapshot.NewStore(cfg.SnapshotPath)
	if err := store.Load(); err != nil {
		logger.Warn("could not load previous snapshot", "error", err)
	}

	keywords := splitKeywords(os.Getenv("CRAWL_KEYWORDS"))
	if len(keywords) == 0 {
		keywords = []string{"cashew"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := crawler.New(cfg, reg, store)
	articles, err := c.Crawl(ctx, crawler.Profile{Keywords: keywords, Limit: cfg.DefaultLimit})
	if err != nil {
		metrics.Global.SetError(err.Error())
		log.Fatalf("crawl error: %v", err)
	}

	logger.Info("crawl finished", "articles", len(articles), "keywords", strings.Join(keywords, ","))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		log.Fatalf("encode error: %v", err)
	}
}

func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_crawl": stats["last_crawl_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
