package proxy

import (
	"net/http"

	logger "github.com/sirupsen/logrus"

	"weexgateway/src/auth"
	"weexgateway/src/security"
)

const HeaderProxyToken = "X-Proxy-Token"

// CORS adds permissive CORS headers to every response and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Expose-Headers", "*")
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken rejects requests whose X-Proxy-Token does not match tokenHash.
// With an empty hash every request passes. The caller is stored in the request context.
func RequireToken(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := &auth.Caller{RemoteAddr: r.RemoteAddr}

			if tokenHash != "" {
				if !security.CheckToken(tokenHash, r.Header.Get(HeaderProxyToken)) {
					logger.WithFields(map[string]interface{}{
						"remote": r.RemoteAddr,
						"path":   r.URL.Path,
					}).Warn("rejected request with invalid proxy token")
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				caller.TokenVerified = true
			}

			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}
