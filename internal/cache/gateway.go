package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	// HeaderCache reports whether a response came from the cache.
	HeaderCache = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"

	DefaultConcurrency = 4
)

// ErrNotInstalled is returned by Activate when the configured generation has
// never been installed.
var ErrNotInstalled = errors.New("generation not installed")

// DefaultManifest is the site's application shell.
var DefaultManifest = []string{
	"/",
	"/static/css/style.css",
	"/static/css/home.css",
	"/static/js/script.js",
	"/static/js/videos.js",
	"/static/images/logo.webp",
	"/static/images/header.webp",
}

// Config describes one cache generation.
type Config struct {
	Generation  string
	Manifest    []string
	Origin      *url.URL
	Client      *http.Client
	Concurrency int
	UserAgent   string
}

// Gateway caches a fixed manifest of the origin's resources and answers
// requests from that cache once activated. Everything else goes to the
// origin untouched.
type Gateway struct {
	cfg     Config
	storage *Storage
	client  *http.Client
	proxy   *httputil.ReverseProxy

	mu        sync.RWMutex
	installed *Bucket
	active    *Bucket
	ready     chan struct{}
	readyOnce sync.Once
}

// NewGateway creates a gateway for cfg backed by storage.
func NewGateway(storage *Storage, cfg Config) (*Gateway, error) {
	if err := validName(cfg.Generation); err != nil {
		return nil, err
	}
	if cfg.Origin == nil || cfg.Origin.Scheme == "" || cfg.Origin.Host == "" {
		return nil, fmt.Errorf("origin must be an absolute URL")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "podcast-admin/1.0"
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	g := &Gateway{
		cfg:     cfg,
		storage: storage,
		client:  client,
		ready:   make(chan struct{}),
	}
	origin := cfg.Origin
	g.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.SetXForwarded()
		},
		Transport: client.Transport,
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Set(HeaderCache, cacheMiss)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("Origin request %s %s failed: %v", r.Method, r.URL.RequestURI(), err)
			w.Header().Set(HeaderCache, cacheMiss)
			http.Error(w, "origin unreachable", http.StatusBadGateway)
		},
	}
	return g, nil
}

// Generation returns the configured generation name.
func (g *Gateway) Generation() string {
	return g.cfg.Generation
}

// Origin returns the fronted site.
func (g *Gateway) Origin() *url.URL {
	return g.cfg.Origin
}

// Install fetches every manifest entry from the origin and stores them as
// the configured generation. Any failed fetch fails the whole install and
// nothing is stored.
func (g *Gateway) Install(ctx context.Context) error {
	log.Printf("Installing cache generation %s (%d resources)", g.cfg.Generation, len(g.cfg.Manifest))

	entries := make([]*Entry, len(g.cfg.Manifest))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for i, ref := range g.cfg.Manifest {
		i, ref := i, ref
		eg.Go(func() error {
			e, err := g.fetch(egCtx, ref)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Printf("Install of %s failed: %v", g.cfg.Generation, err)
		return fmt.Errorf("install %s: %w", g.cfg.Generation, err)
	}

	bucket, err := g.storage.Open(g.cfg.Generation)
	if err != nil {
		return fmt.Errorf("install %s: %w", g.cfg.Generation, err)
	}
	if err := bucket.PutAll(entries); err != nil {
		return fmt.Errorf("install %s: %w", g.cfg.Generation, err)
	}

	g.mu.Lock()
	g.installed = bucket
	g.mu.Unlock()
	log.Printf("Installed cache generation %s (%s)", g.cfg.Generation, humanize.Bytes(uint64(bucket.Size())))
	return nil
}

var skippedHeaders = []string{"Connection", "Keep-Alive", "Transfer-Encoding", "Content-Length", "Date", "Set-Cookie"}

func (g *Gateway) fetch(ctx context.Context, ref string) (*Entry, error) {
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest entry %q: %w", ref, err)
	}
	// Stored under the path clients ask the gateway for; fetched under the
	// origin's path prefix, as the proxy forwards misses.
	key := &url.URL{Path: "/" + strings.TrimPrefix(rel.Path, "/"), RawQuery: rel.RawQuery}
	target := *g.cfg.Origin
	target.Path = strings.TrimSuffix(target.Path, "/") + key.Path
	target.RawPath = ""
	target.RawQuery = key.RawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", ref, err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status code: %d", ref, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}

	header := resp.Header.Clone()
	for _, h := range skippedHeaders {
		header.Del(h)
	}
	return &Entry{
		Method: http.MethodGet,
		Key:    key.RequestURI(),
		Status: resp.StatusCode,
		Header: header,
		Body:   body,
	}, nil
}

// Activate makes the configured generation the live one. Every other
// generation on disk is deleted first. A generation installed by an earlier
// run is picked up from disk.
func (g *Gateway) Activate(ctx context.Context) error {
	g.mu.RLock()
	bucket := g.installed
	g.mu.RUnlock()

	if bucket == nil {
		if !g.storage.Has(g.cfg.Generation) {
			return fmt.Errorf("activate %s: %w", g.cfg.Generation, ErrNotInstalled)
		}
		var err error
		if bucket, err = g.storage.Open(g.cfg.Generation); err != nil {
			return fmt.Errorf("activate %s: %w", g.cfg.Generation, err)
		}
	}

	names, err := g.storage.Keys()
	if err != nil {
		return fmt.Errorf("activate %s: %w", g.cfg.Generation, err)
	}
	eg, _ := errgroup.WithContext(ctx)
	for _, name := range names {
		if name == g.cfg.Generation {
			continue
		}
		name := name
		eg.Go(func() error {
			log.Printf("Evicting cache generation %s", name)
			return g.storage.Delete(name)
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("activate %s: %w", g.cfg.Generation, err)
	}

	g.mu.Lock()
	g.installed = bucket
	g.active = bucket
	g.mu.Unlock()
	g.readyOnce.Do(func() { close(g.ready) })
	log.Printf("Activated cache generation %s", g.cfg.Generation)
	return nil
}

// Ready is closed once the gateway has been activated.
func (g *Gateway) Ready() <-chan struct{} {
	return g.ready
}

// Active reports whether requests are being answered from the cache.
func (g *Gateway) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active != nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Intercept(w, r)
}

// Intercept answers r from the live generation when it holds an exact match
// and from the origin otherwise. Origin responses are never stored.
func (g *Gateway) Intercept(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	bucket := g.active
	g.mu.RUnlock()

	if bucket != nil {
		if e, ok := bucket.Match(r); ok {
			body, err := bucket.Body(e)
			if err == nil {
				writeEntry(w, e, body)
				return
			}
			log.Printf("Cached entry unreadable, using origin: %v", err)
		}
	}
	g.proxy.ServeHTTP(w, r)
}

func writeEntry(w http.ResponseWriter, e *Entry, body []byte) {
	h := w.Header()
	for k, v := range e.Header {
		h[k] = append([]string(nil), v...)
	}
	h.Set(HeaderCache, cacheHit)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(e.Status)
	_, _ = w.Write(body)
}

// GenerationStatus describes one generation on disk.
type GenerationStatus struct {
	Name        string
	Entries     int
	Size        int64
	InstalledAt time.Time
	Current     bool
	Active      bool
}

func (s GenerationStatus) String() string {
	marker := " "
	if s.Active {
		marker = "*"
	} else if s.Current {
		marker = "+"
	}
	return fmt.Sprintf("%s %-20s %3d entries  %8s  installed %s",
		marker, s.Name, s.Entries, humanize.Bytes(uint64(s.Size)), humanize.Time(s.InstalledAt))
}

// Status lists the generations on disk.
func (g *Gateway) Status() ([]GenerationStatus, error) {
	names, err := g.storage.Keys()
	if err != nil {
		return nil, err
	}
	active := g.Active()

	out := make([]GenerationStatus, 0, len(names))
	for _, name := range names {
		b, err := g.storage.Open(name)
		if err != nil {
			return nil, err
		}
		current := name == g.cfg.Generation
		out = append(out, GenerationStatus{
			Name:        name,
			Entries:     b.Len(),
			Size:        b.Size(),
			InstalledAt: b.InstalledAt(),
			Current:     current,
			Active:      current && active,
		})
	}
	return out, nil
}
