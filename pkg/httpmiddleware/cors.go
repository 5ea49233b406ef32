package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or the single entry "*", allows all origins.
	AllowOrigins []string
	// AllowHeaders lists request headers clients may send. When empty, the
	// preflight echoes back the requested headers.
	AllowHeaders []string
	// AllowCredentials exposes responses to credentialed requests. Wildcard
	// origin and credentials cannot combine; the specific origin is echoed.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; 0 omits the header.
	MaxAge int
}

const corsAllowMethods = "GET, POST, PATCH, PUT, DELETE, OPTIONS"

// CORS returns a middleware handling Cross-Origin Resource Sharing, including
// preflight requests.
func CORS(cfg CORSConfig) Middleware {
	allowAll := len(cfg.AllowOrigins) == 0
	allowed := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.ToLower(o)] = o
	}
	if cfg.AllowCredentials {
		allowAll = false
	}
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := ""
			switch {
			case allowAll:
				allowOrigin = "*"
			default:
				w.Header().Add("Vary", "Origin")
				allowOrigin = allowed[strings.ToLower(origin)]
			}

			// Preflight.
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowOrigin != "" {
					w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
					w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
					switch {
					case allowHeaders != "":
						w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
					default:
						if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
							w.Header().Set("Access-Control-Allow-Headers", rh)
						}
					}
					if cfg.AllowCredentials {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
					if cfg.MaxAge > 0 {
						w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
