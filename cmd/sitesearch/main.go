package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/crawler"
	"github.com/mycok/sitesearch/fetcher"
	"github.com/mycok/sitesearch/frontier"
	"github.com/mycok/sitesearch/kvstore"
	memstore "github.com/mycok/sitesearch/kvstore/memory"
	redisstore "github.com/mycok/sitesearch/kvstore/redis"
	"github.com/mycok/sitesearch/search"
	"github.com/mycok/sitesearch/service"
	crawlsvc "github.com/mycok/sitesearch/service/crawl"
	"github.com/mycok/sitesearch/service/webapi"
)

const appName = "sitesearch"

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that will be passed to all services.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	svcGroup, err := configureServices(ctx, logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			// Cancel context, this signals all services to return since
			// they all share this same context.
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")

		return
	}

	// Shutdown due to context cancellation.
	logger.Info("shutdown complete")
}

func configureServices(ctx context.Context, logger *logrus.Entry) (service.Group, error) {
	seedURL := flag.String(
		"seed-url", "",
		"URL of the site to crawl and index. [required]",
	)
	listenAddr := flag.String(
		"listen-addr", ":8080",
		"Address to listen on for incoming API requests",
	)
	kvStoreURI := flag.String(
		"kv-store-uri", "in-memory://",
		"URI for connecting to the frontier key-value store."+
			" [supported URI's: in-memory://, redis://host:6379]",
	)
	snapshotPath := flag.String(
		"snapshot-path", "index.snapshot",
		"File where the search index snapshot is persisted",
	)
	batchSize := flag.Int(
		"crawl-batch-size", crawler.DefaultBatchSize,
		"Maximum number of URLs processed per crawl pass",
	)
	revisitWindow := flag.Duration(
		"revisit-window", frontier.DefaultRevisitWindow,
		"Minimum amount of time before re-crawling an already visited URL",
	)
	updateInterval := flag.Duration(
		"crawl-update-interval", 5*time.Minute,
		"Time between subsequent crawl passes",
	)
	fetchRetries := flag.Int(
		"fetch-retries", 2,
		"Number of browser fetch retries before degrading to plain HTTP",
	)
	fetchBackoff := flag.Duration(
		"fetch-backoff", time.Second,
		"Delay between browser fetch attempts",
	)
	lightBrowser := flag.Bool(
		"light-browser", false,
		"Use the shorter page load timeout, trading render completeness for speed",
	)
	disableBrowser := flag.Bool(
		"disable-browser", false,
		"Fetch pages with plain HTTP only, skipping the headless browser",
	)

	flag.Parse()

	if *seedURL == "" {
		return nil, fmt.Errorf("seed URL must be specified with --seed-url")
	}

	store, err := getKVStore(ctx, *kvStoreURI, logger)
	if err != nil {
		return nil, err
	}

	siteFrontier := frontier.New(store, nil, *revisitWindow)

	browserTimeout := fetcher.DefaultBrowserTimeout
	if *lightBrowser {
		browserTimeout = fetcher.LightBrowserTimeout
	}

	compositeConfig := fetcher.CompositeConfig{
		Primary: fetcher.NewBrowserFetcher(browserTimeout),
		Retries: *fetchRetries,
		Backoff: *fetchBackoff,
		Logger:  logger.WithField("component", "fetcher"),
	}
	if *disableBrowser {
		logger.Info("headless browser disabled, fetching with plain HTTP only")
		compositeConfig.Primary = fetcher.NewHTTPFetcher(nil)
	}

	siteCrawler, err := crawler.New(crawler.Config{
		Frontier:     siteFrontier,
		Fetcher:      fetcher.NewComposite(compositeConfig),
		SeedURL:      *seedURL,
		SnapshotPath: *snapshotPath,
		BatchSize:    *batchSize,
		Logger:       logger.WithField("component", "crawler"),
	})
	if err != nil {
		return nil, err
	}

	searcher, err := search.New(search.Config{
		SnapshotPath: *snapshotPath,
		Logger:       logger.WithField("component", "search"),
	})
	if err != nil {
		return nil, err
	}

	var svcGrp service.Group

	crawlService, err := crawlsvc.New(crawlsvc.Config{
		CrawlAPI:       siteCrawler,
		UpdateInterval: *updateInterval,
		Logger:         logger.WithField("service", "crawl"),
	})
	if err != nil {
		return nil, err
	}
	svcGrp = append(svcGrp, crawlService)

	apiService, err := webapi.New(webapi.Config{
		CrawlAPI:   siteCrawler,
		SearchAPI:  searcher,
		ListenAddr: *listenAddr,
		Logger:     logger.WithField("service", "webapi"),
	})
	if err != nil {
		return nil, err
	}
	svcGrp = append(svcGrp, apiService)

	return svcGrp, nil
}

func getKVStore(ctx context.Context, storeURI string, logger *logrus.Entry) (kvstore.Store, error) {
	if storeURI == "" {
		return nil, fmt.Errorf("key-value store URI must be specified with --kv-store-uri")
	}

	uri, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key-value store URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory key-value store")

		return memstore.NewInMemoryStore(), nil
	case "redis":
		logger.Info("using redis key-value store")

		return redisstore.NewRedisStore(ctx, uri.Host)
	default:
		return nil, fmt.Errorf("unsupported key-value store URI scheme: %q", uri.Scheme)
	}
}
