package crawl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/crawler"
)

// CrawlRunner should be implemented by objects that can run a full crawl
// invocation on demand.
type CrawlRunner interface {
	Crawl(ctx context.Context) (*crawler.Summary, error)
}

// Config encapsulates the settings for configuring the periodic crawl
// service.
type Config struct {
	// CrawlAPI runs the actual crawl invocations.
	CrawlAPI CrawlRunner

	// UpdateInterval between automatic crawl passes.
	UpdateInterval time.Duration

	// Clock drives the pass scheduling. Defaults to the wall clock.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.CrawlAPI == nil {
		err = multierror.Append(err, fmt.Errorf("crawl API not provided"))
	}

	if config.UpdateInterval <= 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for update interval, must be > 0"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
