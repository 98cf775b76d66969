package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vitals-app/internal/beacon"
	"vitals-app/internal/config"
	"vitals-app/internal/domain"
	"vitals-app/internal/endpoints"
	"vitals-app/internal/vitals"
)

var opts struct {
	Collector string  `short:"c" long:"collector" description:"Collector base URL (default from config)"`
	PageViews int     `short:"n" long:"page-views" description:"Number of page views to generate (default from config)"`
	Mode      string  `short:"m" long:"mode" default:"beacon" description:"beacon (page-hide snapshots) or entries (raw performance entries)"`
	Rate      float64 `short:"r" long:"rate" default:"10" description:"Page views per second"`
	Seed      int64   `short:"s" long:"seed" description:"Random seed (default: current time)"`
	Verbose   bool    `short:"v" long:"verbose" description:"Log every sample"`
}

func main() {
	if _, err := flags.ParseArgs(&opts, os.Args); err != nil {
		os.Exit(1)
	}

	if opts.Mode != "beacon" && opts.Mode != "entries" {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", opts.Mode)
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if opts.Collector == "" {
		opts.Collector = cfg.Ingest.CollectorURL
	}
	if opts.PageViews <= 0 {
		opts.PageViews = cfg.Ingest.PageViews
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := &ingester{
		collector: strings.TrimRight(opts.Collector, "/"),
		logger:    logger,
		beacon:    beacon.New(opts.Collector, cfg.Ingest.Timeout, logger),
		client:    &http.Client{Timeout: cfg.Ingest.Timeout},
		rnd:       rand.New(rand.NewSource(opts.Seed)),
		verbose:   opts.Verbose,
	}

	limiter := rate.NewLimiter(rate.Limit(opts.Rate), 1)
	logger.Info("ingesting",
		zap.String("collector", in.collector),
		zap.String("mode", opts.Mode),
		zap.Int("page_views", opts.PageViews),
		zap.Int64("seed", opts.Seed),
	)

	sent := 0
	for ; sent < opts.PageViews; sent++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		pv := generatePageView(in.rnd)
		if opts.Mode == "entries" {
			in.sendEntries(ctx, pv)
		} else {
			in.sendBeacon(pv)
		}
	}
	in.beacon.Wait()

	logger.Info("ingestion complete", zap.Int("page_views", sent))
}

type ingester struct {
	collector string
	logger    *zap.Logger
	beacon    *beacon.HTTPBeacon
	client    *http.Client
	rnd       *rand.Rand
	verbose   bool
}

// sendBeacon replays pv through a production session and flushes it the way
// a page does when it is hidden.
func (in *ingester) sendBeacon(pv PageView) {
	src := vitals.NewReplaySource()
	session := vitals.NewSession(src, vitals.Options{
		Env:            vitals.EnvProduction,
		NavigationType: pv.NavigationType,
		Logger:         in.logger,
		Beacon:         in.beacon.WithReferer("https://ingest.local" + pv.Page),
		OnSample:       in.logSample,
	})
	session.Init()
	src.Dispatch(pv.Entries...)
	session.VisibilityHidden()
	session.Disconnect()

	in.logger.Debug("page view flushed",
		zap.String("page", pv.Page),
		zap.Float64("score", session.Score()),
	)
}

func (in *ingester) sendEntries(ctx context.Context, pv PageView) {
	body, err := json.Marshal(endpoints.EntriesRequest{
		Page:           pv.Page,
		NavigationType: pv.NavigationType,
		Entries:        pv.Entries,
	})
	if err != nil {
		in.logger.Error("encoding entries", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.collector+"/api/analytics/entries", bytes.NewReader(body))
	if err != nil {
		in.logger.Error("building request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := in.client.Do(req)
	if err != nil {
		in.logger.Warn("entries not delivered", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	var res endpoints.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || !res.Status {
		in.logger.Warn("entries rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", res.Error),
			zap.Int("error_code", res.ErrorCode),
		)
		return
	}
	in.logger.Debug("entries stored", zap.String("page", pv.Page), zap.Int("entries", len(pv.Entries)))
}

func (in *ingester) logSample(s domain.Sample) {
	if !in.verbose {
		return
	}
	in.logger.Info("sample",
		zap.String("name", string(s.Name)),
		zap.Float64("value", s.Value),
		zap.String("rating", string(s.Rating)),
	)
}
