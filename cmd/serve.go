package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/publish"
)

var (
	servePort    int
	serveRepoDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the site tree locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if serveRepoDir != "" {
			cfg.Pages.RepoDir = serveRepoDir
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newPreviewRouter(cfg.Pages.RepoDir),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting preview server",
			zap.Int("port", cfg.Server.Port),
			zap.String("repo_dir", cfg.Pages.RepoDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type pageEntry struct {
	Slug    string `json:"slug"`
	OrderID string `json:"order_id,omitempty"`
	Path    string `json:"path"`
}

func newPreviewRouter(repoDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		landing := filepath.Join(repoDir, "index.html")
		if _, err := os.Stat(landing); err != nil {
			http.Redirect(w, r, "/api/pages", http.StatusFound)
			return
		}
		http.ServeFile(w, r, landing)
	})

	r.Get("/api/pages", func(w http.ResponseWriter, r *http.Request) {
		pages, err := listPages(repoDir)
		if err != nil {
			zap.L().Error("serve: list pages", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cannot list pages"})
			return
		}
		writeJSON(w, http.StatusOK, pages)
	})

	pagesDir := filepath.Join(repoDir, publish.PagesDir)
	r.Handle("/"+publish.PagesDir+"/*",
		http.StripPrefix("/"+publish.PagesDir+"/", http.FileServer(http.Dir(pagesDir))))

	return r
}

// listPages returns the page directories that hold an index.html, sorted
// by slug.
func listPages(repoDir string) ([]pageEntry, error) {
	entries, err := os.ReadDir(filepath.Join(repoDir, publish.PagesDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []pageEntry{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read pages dir")
	}

	pages := []pageEntry{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		index := filepath.Join(repoDir, publish.PagesDir, e.Name(), "index.html")
		if _, err := os.Stat(index); err != nil {
			continue
		}
		id, _ := publish.OrderIDFromSlug(e.Name())
		pages = append(pages, pageEntry{
			Slug:    e.Name(),
			OrderID: id,
			Path:    publish.PageURL("/", e.Name()),
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("serve: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveRepoDir, "repo-dir", "", "site repository to serve (default from config)")
	rootCmd.AddCommand(serveCmd)
}
