package billing

import (
	"context"
	"testing"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newService(t *testing.T, plan domain.SubscriptionPlan) (*Service, repository.RepositoryManager, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	repos := repository.NewGormRepositoryManager(db)

	ctx := context.Background()
	org := &domain.Organization{Name: "Acme", APIKey: "dk_" + uuid.New().String()}
	require.NoError(t, repos.Organization().Create(ctx, org))
	require.NoError(t, repos.Subscription().Upsert(ctx, &domain.Subscription{
		OrganizationID:   org.ID,
		Plan:             plan,
		Status:           "active",
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour),
	}))

	return NewService(repos, nil), repos, org.ID
}

func TestLimitsFor(t *testing.T) {
	assert.Equal(t, 1, LimitsFor(domain.PlanFree).MaxAgents)
	assert.Equal(t, 3, LimitsFor(domain.PlanStarter).MaxAgents)
	assert.Equal(t, -1, LimitsFor(domain.PlanEnterprise).MaxAgents)

	// Unknown plans fall back to the tightest quota.
	assert.Equal(t, LimitsFor(domain.PlanFree), LimitsFor(domain.SubscriptionPlan("legacy")))
}

func TestCheckAgentLimitEnforced(t *testing.T) {
	svc, repos, orgID := newService(t, domain.PlanFree)
	ctx := context.Background()

	require.NoError(t, svc.CheckAgentLimit(ctx, orgID))

	_, err := repos.Agent().Create(ctx, &domain.CreateAgentRequest{Name: "First"}, orgID)
	require.NoError(t, err)

	err = svc.CheckAgentLimit(ctx, orgID)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, domain.PlanFree, limitErr.Plan)
	assert.Equal(t, "agents", limitErr.Resource)
	assert.Equal(t, 1, limitErr.Limit)
}

func TestCheckAgentLimitEnterpriseUnlimited(t *testing.T) {
	svc, repos, orgID := newService(t, domain.PlanEnterprise)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := repos.Agent().Create(ctx, &domain.CreateAgentRequest{Name: "Agent"}, orgID)
		require.NoError(t, err)
	}
	assert.NoError(t, svc.CheckAgentLimit(ctx, orgID))
}

func TestCheckCampaignLimitCountsActiveOnly(t *testing.T) {
	svc, repos, orgID := newService(t, domain.PlanFree)
	ctx := context.Background()

	campaign := &domain.Campaign{OrganizationID: orgID, AgentID: uuid.New().String(), Name: "First"}
	require.NoError(t, repos.Campaign().Create(ctx, campaign))

	err := svc.CheckCampaignLimit(ctx, orgID)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)

	// A finished campaign frees its slot.
	require.NoError(t, repos.Campaign().SetStatus(ctx, campaign.ID, domain.CampaignStatusCompleted))
	assert.NoError(t, svc.CheckCampaignLimit(ctx, orgID))
}

func TestCheckPhoneNumberLimitEnforced(t *testing.T) {
	svc, repos, orgID := newService(t, domain.PlanFree)
	ctx := context.Background()

	require.NoError(t, repos.PhoneNumber().Create(ctx, &domain.PhoneNumber{
		OrganizationID: orgID,
		Number:         "+15550000",
		Provider:       domain.PhoneProviderVapi,
		IsActive:       true,
	}))

	err := svc.CheckPhoneNumberLimit(ctx, orgID)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "phone numbers", limitErr.Resource)
}

func TestSetPlanValidatesAndUpserts(t *testing.T) {
	svc, repos, orgID := newService(t, domain.PlanFree)
	ctx := context.Background()

	_, err := svc.SetPlan(ctx, orgID, domain.SubscriptionPlan("platinum"), time.Now())
	assert.Error(t, err)

	sub, err := svc.SetPlan(ctx, orgID, domain.PlanGrowth, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.PlanGrowth, sub.Plan)

	stored, err := repos.Subscription().GetByOrganizationID(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanGrowth, stored.Plan)

	plan, err := svc.PlanFor(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanGrowth, plan)
}
