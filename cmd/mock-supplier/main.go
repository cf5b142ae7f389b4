// Command mock-supplier serves canned offer lists for local gateway runs.
//
// Each file <dir>/<id>.json is served at GET /<id>:
//
//	mock-supplier -addr :9001 -dir config/mock-offers -delay 200ms
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var supplierIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func main() {
	addr := flag.String("addr", ":9001", "listen address")
	dir := flag.String("dir", "config/mock-offers", "directory holding <supplier>.json files")
	delay := flag.Duration("delay", 0, "artificial response delay")
	pretty := flag.Bool("pretty", true, "human-readable logs")
	flag.Parse()

	logger := logging.Setup(logging.Config{
		Level:   logging.LevelInfo,
		Pretty:  *pretty,
		Service: "mock-supplier",
		Output:  os.Stderr,
	})

	server := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(*dir, *delay, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", *addr).Str("dir", *dir).Dur("delay", *delay).Msg("Starting mock supplier")
		errCh <- server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Mock supplier stopped")
		}
	}
}

func newRouter(dir string, delay time.Duration, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/{supplier}", offersHandler(dir, delay, logger))
	return r
}

func offersHandler(dir string, delay time.Duration, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "supplier")
		if !supplierIDPattern.MatchString(id) {
			http.NotFound(w, r)
			return
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		body, err := os.ReadFile(filepath.Join(dir, id+".json"))
		if err != nil {
			logger.Warn().Err(err).Str("supplier", id).Msg("No offers file")
			http.NotFound(w, r)
			return
		}

		logger.Debug().Str("supplier", id).Int("bytes", len(body)).Msg("Serving offers")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
