package webapi

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/crawler"
	"github.com/mycok/sitesearch/search"
)

// CrawlRunner should be implemented by objects that can run a full crawl
// invocation on demand.
type CrawlRunner interface {
	Crawl(ctx context.Context) (*crawler.Summary, error)
}

// QueryRunner should be implemented by objects that can answer ranked
// full-text queries.
type QueryRunner interface {
	Search(query string) ([]search.Result, error)
}

// Config encapsulates the settings for configuring the web API service.
type Config struct {
	// CrawlAPI runs on-demand crawl invocations.
	CrawlAPI CrawlRunner

	// SearchAPI answers ranked queries.
	SearchAPI QueryRunner

	// ListenAddr is the address the HTTP listener binds to.
	ListenAddr string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.CrawlAPI == nil {
		err = multierror.Append(err, fmt.Errorf("crawl API not provided"))
	}

	if config.SearchAPI == nil {
		err = multierror.Append(err, fmt.Errorf("search API not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
