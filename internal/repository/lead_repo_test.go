package repository

import (
	"context"
	"testing"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLead(t *testing.T, repos *GormRepositoryManager, status domain.LeadStatus) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		CampaignID:     uuid.New().String(),
		OrganizationID: uuid.New().String(),
		Name:           "Ada",
		Phone:          "+15550100",
		Status:         status,
	}
	require.NoError(t, repos.Lead().BulkCreate(context.Background(), []*domain.Lead{lead}))
	return lead
}

func TestLeadClaimWinsOnce(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	lead := seedLead(t, repos, domain.LeadStatusPending)

	claimed, err := repos.Lead().Claim(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second claimer must lose: the lead is no longer pending.
	claimed, err = repos.Lead().Claim(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := repos.Lead().GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusCalled, got.Status)
}

func TestLeadClaimUnknownID(t *testing.T) {
	repos := newTestManager(t)

	claimed, err := repos.Lead().Claim(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestLeadMarkClaimedFailed(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	lead := seedLead(t, repos, domain.LeadStatusCalled)

	require.NoError(t, repos.Lead().MarkClaimedFailed(ctx, lead.ID))

	got, err := repos.Lead().GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusFailed, got.Status)

	// Only the called state can be failed this way.
	pending := seedLead(t, repos, domain.LeadStatusPending)
	assert.Error(t, repos.Lead().MarkClaimedFailed(ctx, pending.ID))
}

func TestLeadResolveIsIdempotent(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	lead := seedLead(t, repos, domain.LeadStatusCalled)

	resolved, err := repos.Lead().Resolve(ctx, lead.ID, domain.LeadStatusSucceeded)
	require.NoError(t, err)
	assert.True(t, resolved)

	// Redelivered webhook: the lead is already settled, nothing moves.
	resolved, err = repos.Lead().Resolve(ctx, lead.ID, domain.LeadStatusFailed)
	require.NoError(t, err)
	assert.False(t, resolved)

	got, err := repos.Lead().GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusSucceeded, got.Status)
}

func TestLeadResolveRejectsNonTerminalTarget(t *testing.T) {
	repos := newTestManager(t)
	lead := seedLead(t, repos, domain.LeadStatusCalled)

	_, err := repos.Lead().Resolve(context.Background(), lead.ID, domain.LeadStatusPending)
	assert.Error(t, err)
}

func TestLeadBulkCreateDefaults(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	campaignID := uuid.New().String()

	leads := []*domain.Lead{
		{CampaignID: campaignID, OrganizationID: uuid.New().String(), Phone: "+15550101"},
		{CampaignID: campaignID, OrganizationID: uuid.New().String(), Phone: "+15550102"},
	}
	require.NoError(t, repos.Lead().BulkCreate(ctx, leads))

	for _, lead := range leads {
		assert.NotEmpty(t, lead.ID)
		assert.Equal(t, domain.LeadStatusPending, lead.Status)
	}

	pending, err := repos.Lead().GetPendingByCampaignID(ctx, campaignID, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestLeadGetPendingRespectsLimit(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	campaignID := uuid.New().String()
	orgID := uuid.New().String()

	var leads []*domain.Lead
	for i := 0; i < 5; i++ {
		leads = append(leads, &domain.Lead{
			CampaignID:     campaignID,
			OrganizationID: orgID,
			Phone:          "+1555010" + string(rune('0'+i)),
		})
	}
	require.NoError(t, repos.Lead().BulkCreate(ctx, leads))

	pending, err := repos.Lead().GetPendingByCampaignID(ctx, campaignID, 3)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	count, err := repos.Lead().CountByCampaignID(ctx, campaignID, domain.LeadStatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}
