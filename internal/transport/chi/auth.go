package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths skip authentication so probes and scrapers need no key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware checks "Authorization: Bearer <key>" against apiKeys.
// Blank keys are ignored; with no keys left the middleware is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := bearerToken(r.Header.Get("Authorization"))
			if msg != "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}
			if !knownKey(digests, token) {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential. The scheme name is case-insensitive (RFC 6750).
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, cred, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	cred = strings.TrimSpace(cred)
	if cred == "" {
		return "", "empty bearer token"
	}
	return cred, ""
}

// knownKey compares fixed-size digests in constant time and checks every key.
func knownKey(digests [][sha256.Size]byte, token string) bool {
	got := sha256.Sum256([]byte(token))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(got[:], digests[i][:])
	}
	return found == 1
}
