package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/csams/podcast-admin/internal/cache"
	"github.com/csams/podcast-admin/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var (
	cacheFlags = struct {
		Listen   string
		Watch    bool
		Activate bool
	}{}

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline cache of the site's static assets",
	}

	cacheServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the site through the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cacheFlags.Listen != "" {
				cfg.Cache.Listen = cacheFlags.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gw, err := newGateway(cfg)
			if err != nil {
				return err
			}
			live := newLiveGateway(gw)
			go live.start(ctx)

			if cacheFlags.Watch {
				prev := cfg
				go func() {
					err := manager.Watch(ctx, func(next *config.Config) {
						if live.reload(ctx, prev, next) {
							prev = next
						}
					})
					if err != nil {
						log.Printf("Config watch stopped: %v", err)
					}
				}()
			}

			srv := &http.Server{
				Addr:              cfg.Cache.Listen,
				Handler:           newRouter(live),
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Printf("cache listening on %s (origin %s)", srv.Addr, gw.Origin())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Println("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("graceful shutdown failed: %v", err)
				_ = srv.Close()
			}
			log.Println("server stopped")
			return nil
		},
	}

	cacheInstallCmd = &cobra.Command{
		Use:   "install",
		Short: "Fetch the manifest into the configured generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gw, err := newGateway(cfg)
			if err != nil {
				return err
			}
			if err := gw.Install(cmd.Context()); err != nil {
				return err
			}
			if cacheFlags.Activate {
				if err := gw.Activate(cmd.Context()); err != nil {
					return err
				}
			}
			return printStatus(cmd, gw)
		},
	}

	cacheStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "List the cache generations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gw, err := newGateway(cfg)
			if err != nil {
				return err
			}
			return printStatus(cmd, gw)
		},
	}
)

func init() {
	cacheServeCmd.Flags().StringVarP(&cacheFlags.Listen, "listen", "l", "", "listen address (overrides cache.listen)")
	cacheServeCmd.Flags().BoolVarP(&cacheFlags.Watch, "watch", "w", false, "reinstall when the configured generation changes")
	cacheInstallCmd.Flags().BoolVar(&cacheFlags.Activate, "activate", false, "activate the generation and evict the others")
	cacheCmd.AddCommand(cacheServeCmd, cacheInstallCmd, cacheStatusCmd)
}

func newGateway(cfg *config.Config) (*cache.Gateway, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	origin, err := cfg.OriginURL()
	if err != nil {
		return nil, err
	}
	return cache.NewGateway(cache.NewStorage(dir), cache.Config{
		Generation: cfg.Cache.Generation,
		Manifest:   cfg.Cache.Manifest,
		Origin:     origin,
		Client:     &http.Client{Timeout: cfg.Site.Timeout},
	})
}

// liveGateway holds the gateway answering requests. Startup and reloads
// run one at a time, so an activation never evicts a generation that a
// later reload made live.
type liveGateway struct {
	mu      sync.Mutex
	current atomic.Pointer[cache.Gateway]
}

func newLiveGateway(gw *cache.Gateway) *liveGateway {
	l := &liveGateway{}
	l.current.Store(gw)
	return l
}

func (l *liveGateway) Load() *cache.Gateway {
	return l.current.Load()
}

// start installs and activates the live gateway. A failed install still
// activates a copy of the same generation left on disk by an earlier run.
func (l *liveGateway) start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	gw := l.current.Load()
	if err := gw.Install(ctx); err != nil {
		log.Printf("Install of %s failed: %v", gw.Generation(), err)
	}
	if err := gw.Activate(ctx); err != nil {
		log.Printf("Activation of %s failed, serving from origin: %v", gw.Generation(), err)
	}
}

// reload swaps in a gateway for next when the cache settings changed. The
// new generation is installed while the old one keeps serving; it is only
// activated, evicting the old one, after the swap. It reports false when
// the change could not be applied.
func (l *liveGateway) reload(ctx context.Context, prev, next *config.Config) bool {
	if prev.Cache.Generation == next.Cache.Generation &&
		prev.Cache.Origin == next.Cache.Origin &&
		prev.Site.BaseURL == next.Site.BaseURL &&
		prev.Cache.Dir == next.Cache.Dir &&
		slices.Equal(prev.Cache.Manifest, next.Cache.Manifest) {
		return true
	}
	gw, err := newGateway(next)
	if err != nil {
		log.Printf("Ignoring cache change: %v", err)
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := gw.Install(ctx); err != nil {
		log.Printf("Install of %s failed, keeping %s: %v", gw.Generation(), l.current.Load().Generation(), err)
		return false
	}
	l.current.Store(gw)
	if err := gw.Activate(ctx); err != nil {
		log.Printf("Activation of %s failed: %v", gw.Generation(), err)
	}
	return true
}

func newRouter(current *liveGateway) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		gw := current.Load()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "ok",
			"generation": gw.Generation(),
			"active":     gw.Active(),
		})
	})
	r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current.Load().ServeHTTP(w, r)
	}))
	return r
}

func printStatus(cmd *cobra.Command, gw *cache.Gateway) error {
	statuses, err := gw.Status()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintln(out, "no cache generations installed")
		return nil
	}
	for _, s := range statuses {
		fmt.Fprintln(out, s)
	}
	return nil
}
