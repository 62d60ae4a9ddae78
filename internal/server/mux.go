// Package server provides HTTP server construction for postmatter.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexjbarnes/postmatter/internal/site"
)

// MuxConfig holds dependencies for building the HTTP mux.
type MuxConfig struct {
	Site       *site.Site
	MCPHandler http.Handler
	Logger     *slog.Logger
	// APIKey, when set, is required as a Bearer token on /mcp.
	APIKey string
}

// NewMux builds the HTTP mux with the health and MCP endpoints.
func NewMux(cfg MuxConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", HandleHealth(cfg.Site))

	mcpHandler := cfg.MCPHandler
	if cfg.APIKey != "" {
		mcpHandler = RequireAPIKey(cfg.APIKey, cfg.Logger)(mcpHandler)
	}
	mux.Handle("/mcp", mcpHandler)

	return mux
}

// HandleHealth reports the index totals. It answers 200 even when some
// posts fail to load; broken posts are a content problem, not an outage.
func HandleHealth(s *site.Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status string      `json:"status"`
			Posts  site.Report `json:"posts"`
		}{
			Status: "ok",
			Posts:  s.Index().Report(),
		})
	}
}

// RequireAPIKey returns middleware that rejects requests whose Bearer
// token does not match key.
func RequireAPIKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				if logger != nil {
					logger.Warn("rejected MCP request",
						slog.String("remote", r.RemoteAddr),
						slog.Bool("token_present", ok),
					)
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="postmatter"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
