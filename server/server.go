// Package server exposes the excerpt service over HTTP: a search endpoint
// that drains the document cache with a live-fetch fallback, and a health
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	logging "github.com/ipfs/go-log/v2"

	aozoraapi "github.com/KukimiCan/aozora-api"
	"github.com/KukimiCan/aozora-api/apierror"
	"github.com/KukimiCan/aozora-api/fetch"
	"github.com/KukimiCan/aozora-api/ncache"
)

var log = logging.Logger("server")

const (
	defaultNumChars = 200
	maxNumChars     = 1000
)

// Fetcher performs the synchronous live fetch when the cache is empty.
type Fetcher interface {
	FetchOne(context.Context) (fetch.Document, error)
}

// SearchResult is the excerpt response body.
type SearchResult struct {
	Name    string `json:"name"`
	Author  string `json:"author"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// HealthResponse is the health endpoint response body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Server handles excerpt and health requests. It serves requests from the
// cache first and falls back to one live fetch when the cache is empty.
type Server struct {
	cache   *ncache.Cache
	fetcher Fetcher
	origins map[string]struct{}
	httpSrv *http.Server
}

var _ http.Handler = (*Server)(nil)

// New creates a Server draining cache and falling back to f. With the
// WithStartServer option it also listens and serves on the configured
// address.
func New(cache *ncache.Cache, f Fetcher, options ...Option) (*Server, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cache:   cache,
		fetcher: f,
	}
	if len(opts.origins) != 0 {
		s.origins = make(map[string]struct{}, len(opts.origins))
		for _, o := range opts.origins {
			s.origins[o] = struct{}{}
		}
	}

	if opts.startServer {
		l, err := net.Listen("tcp", opts.listenAddr)
		if err != nil {
			return nil, err
		}
		s.httpSrv = &http.Server{
			Handler: s,
			Addr:    l.Addr().String(),
		}
		go func() {
			if err := s.httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("HTTP server stopped", "err", err)
			}
		}()
		log.Infow("Server listening", "addr", l.Addr().String())
	}

	return s, nil
}

// Addr returns the listen address, or "" if no server was started.
func (s *Server) Addr() string {
	if s.httpSrv == nil {
		return ""
	}
	return s.httpSrv.Addr
}

// Close shuts down the HTTP server, if one was started, waiting for
// in-flight requests to finish.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.URL.Path {
	case "/":
		s.handleHealth(w, r)
	case "/search":
		s.handleSearch(w, r)
	default:
		writeError(w, errors.New("not found"), http.StatusNotFound)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   aozoraapi.Release,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, errors.New("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	numChars := defaultNumChars
	if v := r.URL.Query().Get("num_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxNumChars {
			writeError(w, errors.New("num_chars must be an integer between 1 and 1000"), http.StatusBadRequest)
			return
		}
		numChars = n
	}

	doc, ok := s.cache.TakeFront()
	if !ok {
		// Cache is empty; accept the latency of one live fetch on this
		// request. There is no second attempt on failure.
		log.Infow("Cache empty, falling back to live fetch")
		var err error
		doc, err = s.fetcher.FetchOne(r.Context())
		if err != nil {
			log.Errorw("Live fetch failed", "err", err)
			writeError(w, errors.New("no document available"), http.StatusServiceUnavailable)
			return
		}
	}

	writeJSON(w, SearchResult{
		Name:    doc.Title,
		Author:  doc.Author,
		Content: fetch.Truncate(doc.Text, numChars),
		URL:     doc.URL,
	})
}

func (s *Server) setCORS(w http.ResponseWriter, r *http.Request) {
	if s.origins == nil {
		return
	}
	origin := r.Header.Get("Origin")
	if _, ok := s.origins[origin]; !ok {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Add("Vary", "Origin")
}

func writeJSON(w http.ResponseWriter, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(apierror.EncodeError(apierror.New(err, status)))
}
