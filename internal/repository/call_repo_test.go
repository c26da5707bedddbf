package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCall(t *testing.T, repos *GormRepositoryManager, status domain.CallStatus) *domain.Call {
	t.Helper()
	call := &domain.Call{
		OrganizationID: uuid.New().String(),
		AgentID:        uuid.New().String(),
		ExternalCallID: uuid.New().String(),
		Direction:      domain.CallDirectionOutbound,
		Status:         status,
		ToNumber:       "+15550100",
	}
	require.NoError(t, repos.Call().Create(context.Background(), call))
	return call
}

func TestCallGetByExternalCallID(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	call := seedCall(t, repos, domain.CallStatusQueued)

	got, err := repos.Call().GetByExternalCallID(ctx, call.ExternalCallID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, call.ID, got.ID)

	// Unknown external IDs are a nil result, not an error.
	got, err = repos.Call().GetByExternalCallID(ctx, "vapi-call-nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCallApplyStatusConditional(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	call := seedCall(t, repos, domain.CallStatusQueued)

	applied, err := repos.Call().ApplyStatus(ctx, call.ID, domain.CallStatusQueued, domain.CallStatusRinging, false)
	require.NoError(t, err)
	assert.True(t, applied)

	// The expected current status no longer matches.
	applied, err = repos.Call().ApplyStatus(ctx, call.ID, domain.CallStatusQueued, domain.CallStatusRinging, false)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repos.Call().GetByExternalCallID(ctx, call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusRinging, got.Status)
}

func TestCallApplyStatusStampsStartOnce(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	call := seedCall(t, repos, domain.CallStatusRinging)

	applied, err := repos.Call().ApplyStatus(ctx, call.ID, domain.CallStatusRinging, domain.CallStatusInProgress, true)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repos.Call().GetByExternalCallID(ctx, call.ExternalCallID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	started := *got.StartedAt

	// Drop back and re-advance: the original timestamp survives.
	_, err = repos.Call().ApplyStatus(ctx, got.ID, domain.CallStatusInProgress, domain.CallStatusRinging, false)
	require.NoError(t, err)
	applied, err = repos.Call().ApplyStatus(ctx, got.ID, domain.CallStatusRinging, domain.CallStatusInProgress, true)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err = repos.Call().GetByExternalCallID(ctx, call.ExternalCallID)
	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.WithinDuration(t, started, *got.StartedAt, time.Millisecond)
}

func TestCallFinishGuardsTerminal(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	call := seedCall(t, repos, domain.CallStatusInProgress)

	applied, err := repos.Call().Finish(ctx, call.ID, map[string]interface{}{
		"status":     domain.CallStatusCompleted,
		"ended_at":   time.Now(),
		"cost_cents": int64(42),
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// Redelivery: the call is already terminal, the update must not land.
	applied, err = repos.Call().Finish(ctx, call.ID, map[string]interface{}{
		"status":     domain.CallStatusFailed,
		"cost_cents": int64(999),
	})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repos.Call().GetByExternalCallID(ctx, call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, got.Status)
	assert.EqualValues(t, 42, got.CostCents)
}

func TestCallCreateDefaults(t *testing.T) {
	repos := newTestManager(t)
	call := &domain.Call{
		OrganizationID: uuid.New().String(),
		ExternalCallID: uuid.New().String(),
	}
	require.NoError(t, repos.Call().Create(context.Background(), call))
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, domain.CallStatusQueued, call.Status)
}
