// Package httpapi serves stored hands and player stats as read-only JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AkatukiSora/pokertracker/internal/application"
	"github.com/AkatukiSora/pokertracker/internal/export"
	"github.com/AkatukiSora/pokertracker/internal/parser"
	"github.com/AkatukiSora/pokertracker/internal/persistence"
	"github.com/AkatukiSora/pokertracker/internal/stats"
)

const maxPageSize = 500

// Store is the read side the API needs. *application.Service satisfies it.
type Store interface {
	GetHand(ctx context.Context, handID int64) (*parser.Hand, error)
	ListHands(ctx context.Context, f persistence.HandFilter) ([]*parser.Hand, int, error)
	PlayerStats(ctx context.Context, pseudo string) (*stats.PlayerStats, error)
}

// Router builds the API routes.
func Router(store Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Get("/api/hands", func(w http.ResponseWriter, r *http.Request) {
		f, err := handFilterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		hands, total, err := store.ListHands(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		rows := make([]handView, 0, len(hands))
		for _, h := range hands {
			rows = append(rows, newHandView(h))
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "rows": rows})
	})

	r.Route("/api/hands/{handID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h, ok := loadHand(w, r, store)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, newHandView(h))
		})
		r.Get("/phh", func(w http.ResponseWriter, r *http.Request) {
			h, ok := loadHand(w, r, store)
			if !ok {
				return
			}
			hh, err := export.ToPHH(h)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err)
				return
			}
			w.Header().Set("Content-Type", "application/toml")
			if err := export.Encode(w, hh); err != nil {
				slog.Warn("encode phh", "hand_id", h.HandID, "error", err)
			}
		})
	})

	r.Get("/api/players/{pseudo}/stats", func(w http.ResponseWriter, r *http.Request) {
		pseudo := chi.URLParam(r, "pseudo")
		ps, err := store.PlayerStats(r.Context(), pseudo)
		if errors.Is(err, application.ErrNoHands) {
			writeError(w, http.StatusNotFound, fmt.Errorf("no hands for player %q", pseudo))
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, newStatsView(ps))
	})

	return r
}

func loadHand(w http.ResponseWriter, r *http.Request, store Store) (*parser.Hand, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "handID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid hand id %q", chi.URLParam(r, "handID")))
		return nil, false
	}
	h, err := store.GetHand(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	if h == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("hand %d not found", id))
		return nil, false
	}
	return h, true
}

func handFilterFromQuery(r *http.Request) (persistence.HandFilter, error) {
	q := r.URL.Query()
	f := persistence.HandFilter{Pseudo: q.Get("player"), Limit: 50}
	if s := q.Get("game"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, fmt.Errorf("invalid game id %q", s)
		}
		f.GameID = &id
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPageSize {
			return f, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", s)
		}
		f.Offset = n
	}
	return f, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, store Store) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http api: %w", err)
		}
		return nil
	}
}
