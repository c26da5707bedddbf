package repository

import (
	"context"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	GetByOrganizationID(ctx context.Context, orgID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, sub *domain.Subscription) error
	RecordUsage(ctx context.Context, rec *domain.UsageRecord) error
}

// AgentRepository defines the interface for agent operations
type AgentRepository interface {
	Create(ctx context.Context, req *domain.CreateAgentRequest, orgID string) (*domain.Agent, error)
	GetByID(ctx context.Context, orgID, id string) (*domain.Agent, error)
	GetByOrganizationID(ctx context.Context, orgID string, includeDisabled bool) ([]*domain.Agent, error)
	Update(ctx context.Context, orgID, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error)
	SetExternalAssistantID(ctx context.Context, id, externalID string) error
	Delete(ctx context.Context, orgID, id string) error
	CountByOrganizationID(ctx context.Context, orgID string) (int, error)
}

// PhoneNumberRepository defines the interface for phone number operations
type PhoneNumberRepository interface {
	Create(ctx context.Context, number *domain.PhoneNumber) error
	GetByID(ctx context.Context, orgID, id string) (*domain.PhoneNumber, error)
	GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.PhoneNumber, error)
	GetFirstActive(ctx context.Context, orgID string) (*domain.PhoneNumber, error)
	Delete(ctx context.Context, orgID, id string) error
	CountByOrganizationID(ctx context.Context, orgID string) (int, error)
}

// CampaignRepository defines the interface for campaign operations.
// Counter mutations are store-level atomic increments so interleaved webhook
// deliveries and dispatcher batches cannot lose updates.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, orgID, id string) (*domain.Campaign, error)
	GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.Campaign, error)
	Update(ctx context.Context, orgID, id string, req *domain.UpdateCampaignRequest) (*domain.Campaign, error)
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	Delete(ctx context.Context, orgID, id string) error
	IncrementTotalLeads(ctx context.Context, id string, n int64) error
	IncrementCalledLeads(ctx context.Context, id string, n int64) error
	IncrementSuccessfulCalls(ctx context.Context, id string) error
	IncrementFailedCalls(ctx context.Context, id string) error
	CountActiveByOrganizationID(ctx context.Context, orgID string) (int, error)
}

// LeadRepository defines the interface for lead operations. Transitions are
// conditional updates keyed on the current status so a lead never regresses
// and two concurrent dispatchers cannot both claim the same lead.
type LeadRepository interface {
	BulkCreate(ctx context.Context, leads []*domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	GetPendingByCampaignID(ctx context.Context, campaignID string, limit int) ([]*domain.Lead, error)
	CountByCampaignID(ctx context.Context, campaignID string, status domain.LeadStatus) (int64, error)
	Claim(ctx context.Context, id string) (bool, error)
	AttachCall(ctx context.Context, id, callID string) error
	MarkClaimedFailed(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string, to domain.LeadStatus) (bool, error)
}

// CallRepository defines the interface for call operations. The external call
// ID is the sole lookup key the reconciler may use.
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, orgID, id string) (*domain.Call, error)
	GetByExternalCallID(ctx context.Context, externalCallID string) (*domain.Call, error)
	GetByOrganizationID(ctx context.Context, orgID string, limit, offset int) ([]*domain.Call, error)
	GetByCampaignID(ctx context.Context, campaignID string) ([]*domain.Call, error)
	ApplyStatus(ctx context.Context, id string, from, to domain.CallStatus, startedAt bool) (bool, error)
	Finish(ctx context.Context, id string, updates map[string]interface{}) (bool, error)
}

// ToolRepository defines the interface for tool and credential operations
type ToolRepository interface {
	CreateTool(ctx context.Context, tool *domain.Tool) error
	GetToolsByOrganizationID(ctx context.Context, orgID string) ([]*domain.Tool, error)
	DeleteTool(ctx context.Context, orgID, id string) error
	CreateCredential(ctx context.Context, cred *domain.Credential) error
	GetCredentialsByOrganizationID(ctx context.Context, orgID string) ([]*domain.Credential, error)
	DeleteCredential(ctx context.Context, orgID, id string) error
}

// MeetingRepository defines the interface for meeting bookings
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.Meeting, error)
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Organization() OrganizationRepository
	Subscription() SubscriptionRepository
	Agent() AgentRepository
	PhoneNumber() PhoneNumberRepository
	Campaign() CampaignRepository
	Lead() LeadRepository
	Call() CallRepository
	Tool() ToolRepository
	Meeting() MeetingRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db               *gorm.DB
	organizationRepo *GormOrganizationRepository
	subscriptionRepo *GormSubscriptionRepository
	agentRepo        *GormAgentRepository
	phoneNumberRepo  *GormPhoneNumberRepository
	campaignRepo     *GormCampaignRepository
	leadRepo         *GormLeadRepository
	callRepo         *GormCallRepository
	toolRepo         *GormToolRepository
	meetingRepo      *GormMeetingRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:               db,
		organizationRepo: NewGormOrganizationRepository(db),
		subscriptionRepo: NewGormSubscriptionRepository(db),
		agentRepo:        NewGormAgentRepository(db),
		phoneNumberRepo:  NewGormPhoneNumberRepository(db),
		campaignRepo:     NewGormCampaignRepository(db),
		leadRepo:         NewGormLeadRepository(db),
		callRepo:         NewGormCallRepository(db),
		toolRepo:         NewGormToolRepository(db),
		meetingRepo:      NewGormMeetingRepository(db),
	}
}

// Organization returns the organization repository
func (m *GormRepositoryManager) Organization() OrganizationRepository {
	return m.organizationRepo
}

// Subscription returns the subscription repository
func (m *GormRepositoryManager) Subscription() SubscriptionRepository {
	return m.subscriptionRepo
}

// Agent returns the agent repository
func (m *GormRepositoryManager) Agent() AgentRepository {
	return m.agentRepo
}

// PhoneNumber returns the phone number repository
func (m *GormRepositoryManager) PhoneNumber() PhoneNumberRepository {
	return m.phoneNumberRepo
}

// Campaign returns the campaign repository
func (m *GormRepositoryManager) Campaign() CampaignRepository {
	return m.campaignRepo
}

// Lead returns the lead repository
func (m *GormRepositoryManager) Lead() LeadRepository {
	return m.leadRepo
}

// Call returns the call repository
func (m *GormRepositoryManager) Call() CallRepository {
	return m.callRepo
}

// Tool returns the tool repository
func (m *GormRepositoryManager) Tool() ToolRepository {
	return m.toolRepo
}

// Meeting returns the meeting repository
func (m *GormRepositoryManager) Meeting() MeetingRepository {
	return m.meetingRepo
}

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
