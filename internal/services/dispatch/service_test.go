package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeProvider records outbound call requests and can be told to fail for a
// specific destination number.
type fakeProvider struct {
	requests []*vapi.CreateCallRequest
	failFor  map[string]error
}

func (f *fakeProvider) CreateCall(ctx context.Context, req *vapi.CreateCallRequest) (*vapi.CallResponse, error) {
	if err, ok := f.failFor[req.Customer.Number]; ok {
		return nil, err
	}
	f.requests = append(f.requests, req)
	return &vapi.CallResponse{ID: "vapi-call-" + uuid.New().String(), Status: "queued"}, nil
}

type fixture struct {
	repos    repository.RepositoryManager
	provider *fakeProvider
	orgID    string
	campaign *domain.Campaign
}

func newFixture(t *testing.T, batchSize int) (*Service, *fixture) {
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

	agent, err := repos.Agent().Create(ctx, &domain.CreateAgentRequest{Name: "Closer"}, org.ID)
	require.NoError(t, err)
	require.NoError(t, repos.Agent().SetExternalAssistantID(ctx, agent.ID, "asst_123"))

	number := &domain.PhoneNumber{
		OrganizationID:        org.ID,
		ExternalPhoneNumberID: "pn_123",
		Number:                "+15550000",
		Provider:              domain.PhoneProviderVapi,
		IsActive:              true,
	}
	require.NoError(t, repos.PhoneNumber().Create(ctx, number))

	campaign := &domain.Campaign{OrganizationID: org.ID, AgentID: agent.ID, Name: "Launch"}
	require.NoError(t, repos.Campaign().Create(ctx, campaign))

	provider := &fakeProvider{failFor: map[string]error{}}
	svc := NewService(repos, provider, nil, batchSize)
	return svc, &fixture{repos: repos, provider: provider, orgID: org.ID, campaign: campaign}
}

func (f *fixture) importLeads(t *testing.T, phones ...string) []*domain.Lead {
	t.Helper()
	leads := make([]*domain.Lead, 0, len(phones))
	for _, phone := range phones {
		leads = append(leads, &domain.Lead{
			CampaignID:     f.campaign.ID,
			OrganizationID: f.orgID,
			Phone:          phone,
		})
	}
	require.NoError(t, f.repos.Lead().BulkCreate(context.Background(), leads))
	require.NoError(t, f.repos.Campaign().IncrementTotalLeads(context.Background(), f.campaign.ID, int64(len(leads))))
	return leads
}

func TestStartCampaignDialsPendingLeads(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()
	leads := f.importLeads(t, "+15550101", "+15550102", "+15550103")

	result, err := svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Started)
	require.Len(t, result.Results, 3)
	for _, r := range result.Results {
		assert.Equal(t, string(domain.CallStatusQueued), r.Status)
		assert.NotEmpty(t, r.CallID)
	}
	assert.Len(t, f.provider.requests, 3)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, campaign.Status)
	assert.EqualValues(t, 3, campaign.CalledLeads)

	calls, err := f.repos.Call().GetByCampaignID(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 3)

	for _, lead := range leads {
		got, err := f.repos.Lead().GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusCalled, got.Status)
		assert.NotEmpty(t, got.CallID)
	}
}

func TestStartCampaignProviderFailureDoesNotAbortBatch(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()
	leads := f.importLeads(t, "+15550101", "+15550102", "+15550103")
	f.provider.failFor["+15550102"] = errors.New("provider API returned status 500")

	result, err := svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Started)

	var failed, queued int
	for _, r := range result.Results {
		switch r.Status {
		case string(domain.LeadStatusFailed):
			failed++
			assert.NotEmpty(t, r.Error)
		case string(domain.CallStatusQueued):
			queued++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, queued)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, campaign.CalledLeads)

	// The failed lead carries no call record.
	got, err := f.repos.Lead().GetByID(ctx, leads[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusFailed, got.Status)
	assert.Empty(t, got.CallID)

	calls, err := f.repos.Call().GetByCampaignID(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestStartCampaignNeverRedialsClaimedLeads(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()
	f.importLeads(t, "+15550101", "+15550102")

	first, err := svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Started)

	second, err := svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Started)
	assert.Len(t, f.provider.requests, 2)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, campaign.CalledLeads)
}

func TestStartCampaignHonorsBatchSize(t *testing.T) {
	svc, f := newFixture(t, 2)
	ctx := context.Background()
	f.importLeads(t, "+15550101", "+15550102", "+15550103")

	result, err := svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Started)

	pending, err := f.repos.Lead().CountByCampaignID(ctx, f.campaign.ID, domain.LeadStatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestStartCampaignRequiresProvisionedAgent(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()

	// A campaign pointed at an agent that never got an assistant.
	agent, err := f.repos.Agent().Create(ctx, &domain.CreateAgentRequest{Name: "Unprovisioned"}, f.orgID)
	require.NoError(t, err)
	campaign := &domain.Campaign{OrganizationID: f.orgID, AgentID: agent.ID, Name: "Blocked"}
	require.NoError(t, f.repos.Campaign().Create(ctx, campaign))

	_, err = svc.StartCampaign(ctx, f.orgID, campaign.ID)
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "agent", precondition.Resource)
}

func TestStartCampaignRequiresActiveNumber(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()

	numbers, err := f.repos.PhoneNumber().GetByOrganizationID(ctx, f.orgID)
	require.NoError(t, err)
	for _, n := range numbers {
		require.NoError(t, f.repos.PhoneNumber().Delete(ctx, f.orgID, n.ID))
	}

	_, err = svc.StartCampaign(ctx, f.orgID, f.campaign.ID)
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "phone_number", precondition.Resource)
}

func TestImportLeadsSkipsEmptyPhones(t *testing.T) {
	svc, f := newFixture(t, 10)
	ctx := context.Background()

	imported, err := svc.ImportLeads(ctx, f.orgID, f.campaign.ID, &domain.ImportLeadsRequest{
		Leads: []domain.ImportLead{
			{Name: "Ada", Phone: "+15550101"},
			{Name: "NoPhone"},
			{Name: "Grace", Phone: "+15550102"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	stats, err := svc.Stats(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalLeads)
	assert.EqualValues(t, 2, stats.PendingLeads)
	assert.EqualValues(t, 0, stats.Unresolved)
}
