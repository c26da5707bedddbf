package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/config"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const organizationContextKey contextKey = "organization"

// OrganizationFromContext extracts the authenticated organization
func OrganizationFromContext(ctx context.Context) *domain.Organization {
	org, _ := ctx.Value(organizationContextKey).(*domain.Organization)
	return org
}

// LoggingMiddleware logs HTTP requests for API endpoints
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Base().Info("api request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// ValidationMiddleware validates common request parameters
func ValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CORSMiddleware adds CORS headers to all requests
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Vapi-Signature")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MaintenanceMiddleware rejects mutating API traffic while maintenance mode
// is on. Configuration is injected so tests can exercise both states.
func MaintenanceMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaintenanceMode && r.Method != http.MethodGet {
				writeError(w, http.StatusServiceUnavailable, "service is under maintenance")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware authenticates the calling organization. Either an X-API-Key
// header holding the organization's key, or an Authorization bearer token
// minted by the auth endpoint, resolves the organization into the request
// context.
func AuthMiddleware(orgRepo repository.OrganizationRepository, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var org *domain.Organization

			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				found, err := orgRepo.GetByAPIKey(r.Context(), apiKey)
				if err != nil {
					logger.Base().Warn("invalid api key",
						zap.String("remote_addr", r.RemoteAddr),
						zap.Error(err))
					writeError(w, http.StatusUnauthorized, "invalid api key")
					return
				}
				org = found
			} else if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				orgID, err := parseOrganizationToken(strings.TrimPrefix(auth, "Bearer "), jwtSecret)
				if err != nil {
					logger.Base().Warn("invalid bearer token",
						zap.String("remote_addr", r.RemoteAddr),
						zap.Error(err))
					writeError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				found, err := orgRepo.GetByID(r.Context(), orgID)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "organization not found")
					return
				}
				org = found
			} else {
				writeError(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			if org.Disabled {
				writeError(w, http.StatusForbidden, "organization is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), organizationContextKey, org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// organizationClaims is the JWT payload for dashboard sessions
type organizationClaims struct {
	OrganizationID string `json:"org_id"`
	jwt.RegisteredClaims
}

// IssueOrganizationToken signs a short-lived session token for an organization
func IssueOrganizationToken(orgID, jwtSecret string, ttl time.Duration) (string, error) {
	claims := &organizationClaims{
		OrganizationID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

func parseOrganizationToken(tokenString, jwtSecret string) (string, error) {
	claims := &organizationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.OrganizationID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.OrganizationID, nil
}
