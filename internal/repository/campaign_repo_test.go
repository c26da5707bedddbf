package repository

import (
	"context"
	"testing"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCampaign(t *testing.T, repos *GormRepositoryManager, orgID string) *domain.Campaign {
	t.Helper()
	campaign := &domain.Campaign{
		OrganizationID: orgID,
		AgentID:        uuid.New().String(),
		Name:           "Q3 outreach",
		Status:         domain.CampaignStatusDraft,
	}
	require.NoError(t, repos.Campaign().Create(context.Background(), campaign))
	return campaign
}

func TestCampaignCounters(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	orgID := uuid.New().String()
	campaign := seedCampaign(t, repos, orgID)

	require.NoError(t, repos.Campaign().IncrementTotalLeads(ctx, campaign.ID, 5))
	require.NoError(t, repos.Campaign().IncrementCalledLeads(ctx, campaign.ID, 3))
	require.NoError(t, repos.Campaign().IncrementSuccessfulCalls(ctx, campaign.ID))
	require.NoError(t, repos.Campaign().IncrementFailedCalls(ctx, campaign.ID))

	got, err := repos.Campaign().GetByID(ctx, orgID, campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.TotalLeads)
	assert.EqualValues(t, 3, got.CalledLeads)
	assert.EqualValues(t, 1, got.SuccessfulCalls)
	assert.EqualValues(t, 1, got.FailedCalls)
	assert.EqualValues(t, 1, got.UnresolvedCalls())
}

func TestCampaignCountActive(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	orgID := uuid.New().String()

	first := seedCampaign(t, repos, orgID)
	seedCampaign(t, repos, orgID)
	seedCampaign(t, repos, uuid.New().String())

	count, err := repos.Campaign().CountActiveByOrganizationID(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repos.Campaign().SetStatus(ctx, first.ID, domain.CampaignStatusCompleted))

	count, err = repos.Campaign().CountActiveByOrganizationID(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCampaignScopedToOrganization(t *testing.T) {
	repos := newTestManager(t)
	ctx := context.Background()
	campaign := seedCampaign(t, repos, uuid.New().String())

	_, err := repos.Campaign().GetByID(ctx, uuid.New().String(), campaign.ID)
	assert.Error(t, err)
}
