package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/config"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

func newAuthFixture(t *testing.T) (repository.RepositoryManager, *domain.Organization) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	repos := repository.NewGormRepositoryManager(db)

	org := &domain.Organization{Name: "Acme", APIKey: "dk_test_key"}
	require.NoError(t, repos.Organization().Create(context.Background(), org))
	return repos, org
}

func authProbe(repos repository.RepositoryManager, captured **domain.Organization) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = OrganizationFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(repos.Organization(), testJWTSecret)(inner)
}

func TestAuthMiddlewareAPIKey(t *testing.T) {
	repos, org := newAuthFixture(t)
	var captured *domain.Organization
	handler := authProbe(repos, &captured)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("X-API-Key", org.APIKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, org.ID, captured.ID)
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	repos, org := newAuthFixture(t)
	var captured *domain.Organization
	handler := authProbe(repos, &captured)

	token, err := IssueOrganizationToken(org.ID, testJWTSecret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, org.ID, captured.ID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	repos, org := newAuthFixture(t)
	var captured *domain.Organization
	handler := authProbe(repos, &captured)

	// No credentials at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key.
	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("X-API-Key", "dk_wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token.
	expired, err := IssueOrganizationToken(org.ID, testJWTSecret, -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with another secret.
	forged, err := IssueOrganizationToken(org.ID, "other-secret", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareDisabledOrganization(t *testing.T) {
	repos, org := newAuthFixture(t)
	org.Disabled = true
	require.NoError(t, repos.Organization().Update(context.Background(), org))

	var captured *domain.Organization
	handler := authProbe(repos, &captured)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("X-API-Key", org.APIKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMaintenanceMiddleware(t *testing.T) {
	cfg := &config.Config{MaintenanceMode: true}
	handler := MaintenanceMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Reads stay available during maintenance.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/campaigns", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cfg.MaintenanceMode = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/campaigns", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
