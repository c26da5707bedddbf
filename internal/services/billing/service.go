package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/ClareAI/astra-dialer-service/pkg/redis"
	"go.uber.org/zap"
)

// PlanLimits is the quota set attached to a subscription plan
type PlanLimits struct {
	MaxAgents          int
	MaxPhoneNumbers    int
	MaxActiveCampaigns int
}

// planLimits is the static plan to quota table. -1 means unlimited.
var planLimits = map[domain.SubscriptionPlan]PlanLimits{
	domain.PlanFree:       {MaxAgents: 1, MaxPhoneNumbers: 1, MaxActiveCampaigns: 1},
	domain.PlanStarter:    {MaxAgents: 3, MaxPhoneNumbers: 2, MaxActiveCampaigns: 3},
	domain.PlanGrowth:     {MaxAgents: 10, MaxPhoneNumbers: 5, MaxActiveCampaigns: 10},
	domain.PlanEnterprise: {MaxAgents: -1, MaxPhoneNumbers: -1, MaxActiveCampaigns: -1},
}

const planCacheTTL = 5 * time.Minute

// LimitError indicates a plan quota would be exceeded by the creation
type LimitError struct {
	Plan     domain.SubscriptionPlan
	Resource string
	Limit    int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("plan %s allows at most %d %s", e.Plan, e.Limit, e.Resource)
}

// Service gates resource creation on the organization's subscription plan.
// Plan lookups go through a short-lived Redis cache; checks are plain
// read-then-decide and tolerate races under concurrent creation.
type Service struct {
	repos        repository.RepositoryManager
	redisService redis.RedisServiceInterface
}

// NewService creates a new billing gate. redisService may be nil, in which
// case every check reads the subscription from the store.
func NewService(repos repository.RepositoryManager, redisService redis.RedisServiceInterface) *Service {
	return &Service{repos: repos, redisService: redisService}
}

// LimitsFor returns the quota set for a plan. Unknown plans get free limits.
func LimitsFor(plan domain.SubscriptionPlan) PlanLimits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[domain.PlanFree]
}

// PlanFor resolves the organization's current plan, cache first
func (s *Service) PlanFor(ctx context.Context, orgID string) (domain.SubscriptionPlan, error) {
	if s.redisService != nil {
		key := s.redisService.GenerateKey(redis.PLAN_CONFIG, orgID)
		if cached, err := s.redisService.GetValue(ctx, key); err == nil && cached != "" {
			return domain.SubscriptionPlan(cached), nil
		} else if err != nil && err != redis.ErrKeyNotExist {
			logger.Base().Warn("Plan cache read failed, falling back to store",
				zap.String("organization_id", orgID), zap.Error(err))
		}
	}

	sub, err := s.repos.Subscription().GetByOrganizationID(ctx, orgID)
	if err != nil {
		return "", err
	}

	if s.redisService != nil {
		key := s.redisService.GenerateKey(redis.PLAN_CONFIG, orgID)
		if err := s.redisService.SetValue(ctx, key, string(sub.Plan), planCacheTTL); err != nil {
			logger.Base().Warn("Plan cache write failed",
				zap.String("organization_id", orgID), zap.Error(err))
		}
	}
	return sub.Plan, nil
}

// InvalidatePlan drops the cached plan after a subscription change
func (s *Service) InvalidatePlan(ctx context.Context, orgID string) {
	if s.redisService == nil {
		return
	}
	key := s.redisService.GenerateKey(redis.PLAN_CONFIG, orgID)
	if err := s.redisService.DelValue(ctx, key); err != nil {
		logger.Base().Warn("Plan cache invalidation failed",
			zap.String("organization_id", orgID), zap.Error(err))
	}
}

// CheckAgentLimit blocks agent creation above the plan quota
func (s *Service) CheckAgentLimit(ctx context.Context, orgID string) error {
	plan, err := s.PlanFor(ctx, orgID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan)
	if limits.MaxAgents < 0 {
		return nil
	}
	count, err := s.repos.Agent().CountByOrganizationID(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= limits.MaxAgents {
		return &LimitError{Plan: plan, Resource: "agents", Limit: limits.MaxAgents}
	}
	return nil
}

// CheckPhoneNumberLimit blocks phone number provisioning above the plan quota
func (s *Service) CheckPhoneNumberLimit(ctx context.Context, orgID string) error {
	plan, err := s.PlanFor(ctx, orgID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan)
	if limits.MaxPhoneNumbers < 0 {
		return nil
	}
	count, err := s.repos.PhoneNumber().CountByOrganizationID(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= limits.MaxPhoneNumbers {
		return &LimitError{Plan: plan, Resource: "phone numbers", Limit: limits.MaxPhoneNumbers}
	}
	return nil
}

// CheckCampaignLimit blocks campaign creation above the plan's active quota
func (s *Service) CheckCampaignLimit(ctx context.Context, orgID string) error {
	plan, err := s.PlanFor(ctx, orgID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan)
	if limits.MaxActiveCampaigns < 0 {
		return nil
	}
	count, err := s.repos.Campaign().CountActiveByOrganizationID(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= limits.MaxActiveCampaigns {
		return &LimitError{Plan: plan, Resource: "active campaigns", Limit: limits.MaxActiveCampaigns}
	}
	return nil
}

// SetPlan upserts the organization's subscription and refreshes the cache
func (s *Service) SetPlan(ctx context.Context, orgID string, plan domain.SubscriptionPlan, periodEnd time.Time) (*domain.Subscription, error) {
	if _, ok := planLimits[plan]; !ok {
		return nil, fmt.Errorf("unknown plan: %s", plan)
	}
	sub := &domain.Subscription{
		OrganizationID:   orgID,
		Plan:             plan,
		Status:           "active",
		CurrentPeriodEnd: periodEnd,
	}
	if err := s.repos.Subscription().Upsert(ctx, sub); err != nil {
		return nil, err
	}
	s.InvalidatePlan(ctx, orgID)
	return sub, nil
}
