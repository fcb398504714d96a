package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configure cross-origin access. An AllowedOrigins entry of "*"
// admits every origin.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSOptions allows origins to drive the editor API, including the
// download headers.
func DefaultCORSOptions(origins []string) CORSOptions {
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Accept-Language", "X-Locale", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Language", "X-Request-ID", "Retry-After"},
		MaxAge:         10 * time.Minute,
	}
}

// CORS answers preflight requests itself and decorates the rest with the
// allow headers when the origin is admitted.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	anyOrigin := slices.Contains(opts.AllowedOrigins, "*")
	allow := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		allow[strings.TrimRight(origin, "/")] = struct{}{}
	}
	methods := strings.Join(opts.AllowedMethods, ", ")
	headers := strings.Join(opts.AllowedHeaders, ", ")
	exposed := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(opts.MaxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			admitted := false
			if origin != "" {
				w.Header().Add("Vary", "Origin")
				_, listed := allow[origin]
				admitted = anyOrigin || listed
			}
			if admitted {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if exposed != "" && !preflight {
					w.Header().Set("Access-Control-Expose-Headers", exposed)
				}
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if preflight && admitted {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				if opts.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", maxAge)
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
