/*
	webapi package exposes the crawl and search operations of the sitesearch
	application over a JSON HTTP API. It satisfies the service.Service
	interface so it can run as part of the application's service group.
*/

package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mycok/sitesearch/search"
)

const (
	crawlEndpoint  = "/api/crawl"
	searchEndpoint = "/api/search"
)

// Service represents the web API service for the sitesearch application. It
// satisfies the service.Service interface.
type Service struct {
	config Config
	router *chi.Mux
}

// New creates and returns a fully configured web API service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("webapi service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: chi.NewRouter(),
	}

	svc.router.Post(crawlEndpoint, svc.handleCrawl)
	svc.router.Get(searchEndpoint, svc.handleSearch)

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "webapi" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info(
		"started service",
	)

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

// Router exposes the service's HTTP handler so tests can drive it without a
// live listener.
func (svc *Service) Router() http.Handler { return svc.router }

// handleCrawl runs one synchronous crawl invocation and reports its summary.
func (svc *Service) handleCrawl(w http.ResponseWriter, r *http.Request) {
	summary, err := svc.config.CrawlAPI.Crawl(r.Context())
	if err != nil {
		svc.config.Logger.WithField("err", err).Error("crawl invocation failed")

		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "crawl failed, please try again later",
		})

		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleSearch answers a ranked query from the latest persisted snapshot.
func (svc *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := svc.config.SearchAPI.Search(query)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error: "query parameter 'q' must not be empty",
			})

		case errors.Is(err, search.ErrNothingIndexed):
			respondJSON(w, http.StatusNotFound, errorResponse{
				Error: "nothing has been indexed yet, run a crawl first",
			})

		default:
			svc.config.Logger.WithFields(logrus.Fields{
				"query": query,
				"err":   err.Error(),
			}).Error("search query execution failed")

			respondJSON(w, http.StatusInternalServerError, errorResponse{
				Error: "search failed, please try again later",
			})
		}

		return
	}

	if results == nil {
		results = []search.Result{}
	}

	respondJSON(w, http.StatusOK, searchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}
