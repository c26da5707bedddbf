package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newWebhookFixture(t *testing.T, secret string) (*mux.Router, repository.RepositoryManager, *domain.Call) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	repos := repository.NewGormRepositoryManager(db)

	call := &domain.Call{
		OrganizationID: uuid.New().String(),
		ExternalCallID: "vapi-call-1",
		Direction:      domain.CallDirectionOutbound,
		Status:         domain.CallStatusQueued,
	}
	require.NoError(t, repos.Call().Create(context.Background(), call))

	router := mux.NewRouter()
	NewWebhookHandler(reconcile.NewService(repos, nil), secret).SetupRoutes(router)
	return router, repos, call
}

func postWebhook(t *testing.T, router *mux.Router, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Vapi-Signature", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func statusUpdateBody(t *testing.T, externalCallID, status string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"message": map[string]interface{}{
			"type":   reconcile.MessageTypeStatusUpdate,
			"status": status,
			"call":   map[string]string{"id": externalCallID},
		},
	})
	require.NoError(t, err)
	return body
}

func TestWebhookAppliesStatusUpdate(t *testing.T) {
	router, repos, call := newWebhookFixture(t, "")

	rec := postWebhook(t, router, statusUpdateBody(t, call.ExternalCallID, "ringing"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	got, err := repos.Call().GetByExternalCallID(context.Background(), call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusRinging, got.Status)
}

func TestWebhookMalformedPayloadStillAcks(t *testing.T) {
	router, repos, call := newWebhookFixture(t, "")

	rec := postWebhook(t, router, []byte(`{"message": not-json`), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	got, err := repos.Call().GetByExternalCallID(context.Background(), call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusQueued, got.Status)
}

func TestWebhookUnknownCallStillAcks(t *testing.T) {
	router, _, _ := newWebhookFixture(t, "")

	rec := postWebhook(t, router, statusUpdateBody(t, "vapi-call-unknown", "ringing"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router, repos, call := newWebhookFixture(t, "whsec_topsecret")

	rec := postWebhook(t, router, statusUpdateBody(t, call.ExternalCallID, "ringing"), "whsec_wrong")
	assert.Equal(t, http.StatusOK, rec.Code)

	// The payload must not have been processed.
	got, err := repos.Call().GetByExternalCallID(context.Background(), call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusQueued, got.Status)
}

func TestWebhookAcceptsGoodSignature(t *testing.T) {
	router, repos, call := newWebhookFixture(t, "whsec_topsecret")

	rec := postWebhook(t, router, statusUpdateBody(t, call.ExternalCallID, "ringing"), "whsec_topsecret")
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := repos.Call().GetByExternalCallID(context.Background(), call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusRinging, got.Status)
}
