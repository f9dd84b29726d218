package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridiancrm/core/pkg/tenant"
)

// Middleware authenticates the caller via one of three tiers (spec §6.1):
//
//  1. X-Cron-Secret: <secret>        → cron, constant-time compare, fail-closed
//  2. Authorization: Bearer <token>, where the token matches the configured
//     service-role hash → service role (drives sync/ingest/worker endpoints)
//  3. Authorization: Bearer <token>, hashed and looked up against
//     tenant.user_api_keys → end user
//
// Middleware must run after tenant resolution, since the end-user tier
// looks up the presented key against the already search_path-scoped
// connection in the request context. The cron and service tiers don't need
// that connection, but still expect a tenant to have been resolved (cron
// and service calls are always made against a specific tenant).
//
// A request presenting none of these is rejected with 401 — this path
// never falls open.
func Middleware(cronSecret, serviceRoleTokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity *Identity

			if cronSecret != "" {
				if presented := r.Header.Get("X-Cron-Secret"); presented != "" {
					if subtle.ConstantTimeCompare([]byte(presented), []byte(cronSecret)) == 1 {
						identity = &Identity{Method: MethodCron}
					} else {
						logger.Warn("cron secret mismatch")
						respondErr(w, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
						return
					}
				}
			}

			if identity == nil {
				if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
					token := strings.TrimSpace(authHeader[len("Bearer "):])

					if serviceRoleTokenHash != "" && bcrypt.CompareHashAndPassword([]byte(serviceRoleTokenHash), []byte(token)) == nil {
						identity = &Identity{Method: MethodService}
					} else if conn := tenant.ConnFromContext(r.Context()); conn != nil {
						apikeyAuth := &APIKeyAuthenticator{DB: conn}
						key, err := apikeyAuth.Authenticate(r.Context(), token)
						if err == nil {
							identity = &Identity{
								Method: MethodUser,
								UserID: &key.UserID,
							}
						}
					}
				}
			}

			if identity == nil {
				respondErr(w, http.StatusUnauthorized, "unauthorized", "no valid authentication provided")
				return
			}

			ctx := NewContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that have no authenticated identity. It is
// typically unnecessary since Middleware already rejects unauthenticated
// requests, but is kept as a guard for routes mounted outside the standard
// chain (e.g. sub-routers built in tests).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			respondErr(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMethod returns middleware that rejects requests whose identity was
// not authenticated via one of the given methods — used to restrict
// sync/ingest/worker endpoints to the service and cron tiers.
func RequireMethod(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, m := range allowed {
		set[m] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				respondErr(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if _, ok := set[id.Method]; !ok {
				respondErr(w, http.StatusForbidden, "forbidden", "caller is not permitted to invoke this endpoint")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCronOrService authenticates a request against only the cron-secret
// and service-role tiers, with no tenant resolution beforehand. Used by
// fleet-wide, cross-tenant endpoints (C2's tick and webhook ingress) that
// cannot place a single resolved tenant in the request context up front.
func RequireCronOrService(cronSecret, serviceRoleTokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cronSecret != "" {
				if presented := r.Header.Get("X-Cron-Secret"); presented != "" {
					if subtle.ConstantTimeCompare([]byte(presented), []byte(cronSecret)) == 1 {
						ctx := NewContext(r.Context(), &Identity{Method: MethodCron})
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
					logger.Warn("cron secret mismatch")
					respondErr(w, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
					return
				}
			}

			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				token := strings.TrimSpace(authHeader[len("Bearer "):])
				if serviceRoleTokenHash != "" && bcrypt.CompareHashAndPassword([]byte(serviceRoleTokenHash), []byte(token)) == nil {
					ctx := NewContext(r.Context(), &Identity{Method: MethodService})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			respondErr(w, http.StatusUnauthorized, "unauthorized", "cron secret or service-role bearer required")
		})
	}
}

func respondErr(w http.ResponseWriter, status int, errStr, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errStr,
		"message": message,
	})
}
