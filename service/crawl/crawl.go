/*
	crawl package wraps the crawler in a periodic service: a crawl pass runs
	every update interval and can also be triggered on demand between passes.
	It satisfies the service.Service interface so it can run as part of the
	application's service group.
*/

package crawl

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Service represents the periodic crawl service for the sitesearch
// application. It satisfies the service.Service interface.
type Service struct {
	config  Config
	trigger chan struct{}
}

// New creates and returns a fully configured periodic crawl service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("crawl service: config validation failed: %w", err)
	}

	return &Service{
		config:  config,
		trigger: make(chan struct{}, 1),
	}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "crawl" }

// Trigger requests an immediate crawl pass without waiting for the update
// interval to elapse. A pass request that is already pending is absorbed.
func (svc *Service) Trigger() {
	select {
	case svc.trigger <- struct{}{}:
	default:
	}
}

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"update_interval", svc.config.UpdateInterval.String(),
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.trigger:
			if err := svc.crawlPass(ctx); err != nil {
				return err
			}
		case <-svc.config.Clock.After(svc.config.UpdateInterval):
			if err := svc.crawlPass(ctx); err != nil {
				return err
			}
		}
	}
}

func (svc *Service) crawlPass(ctx context.Context) error {
	svc.config.Logger.Info("started crawl pass")

	startedAt := svc.config.Clock.Now()

	summary, err := svc.config.CrawlAPI.Crawl(ctx)
	if err != nil {
		return fmt.Errorf("crawl: unable to complete crawl pass: %w", err)
	}

	svc.config.Logger.WithFields(logrus.Fields{
		"crawled_count": summary.NumCrawled,
		"failed_count":  len(summary.Failed),
		"elapsed_time":  svc.config.Clock.Now().Sub(startedAt).String(),
	}).Info("successfully completed crawl pass")

	return nil
}
