package numbers

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioVerifier confirms a phone number belongs to a Twilio account before
// registering it with the call provider
type TwilioVerifier interface {
	OwnsNumber(ctx context.Context, number string) (bool, error)
}

// TwilioClient is the production verifier backed by the Twilio REST API
type TwilioClient struct {
	client     *twilio.RestClient
	accountSID string
	authToken  string
	enabled    bool
}

// NewTwilioClient creates a Twilio verifier. Empty credentials disable
// verification and BYO imports are rejected.
func NewTwilioClient(accountSID, authToken string) *TwilioClient {
	if accountSID == "" || authToken == "" {
		logger.Base().Warn("Twilio credentials not provided, number import disabled")
		return &TwilioClient{enabled: false}
	}
	return &TwilioClient{
		client:     twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		accountSID: accountSID,
		authToken:  authToken,
		enabled:    true,
	}
}

// OwnsNumber checks the Twilio account's incoming number inventory
func (c *TwilioClient) OwnsNumber(ctx context.Context, number string) (bool, error) {
	if !c.enabled {
		return false, fmt.Errorf("twilio integration is not configured")
	}
	params := &api.ListIncomingPhoneNumberParams{}
	params.SetPhoneNumber(number)
	params.SetLimit(1)
	records, err := c.client.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		return false, fmt.Errorf("failed to query twilio numbers: %w", err)
	}
	return len(records) > 0, nil
}

// Credentials exposes the account pair for provider-side registration
func (c *TwilioClient) Credentials() (string, string) {
	return c.accountSID, c.authToken
}

// Service provisions and imports phone numbers for an organization
type Service struct {
	repos    repository.RepositoryManager
	provider *vapi.Client
	twilio   *TwilioClient
	verifier TwilioVerifier
}

// NewService creates a new phone number service
func NewService(repos repository.RepositoryManager, provider *vapi.Client, twilioClient *TwilioClient) *Service {
	return &Service{
		repos:    repos,
		provider: provider,
		twilio:   twilioClient,
		verifier: twilioClient,
	}
}

// Provision requests a fresh number from the call provider and stores it
func (s *Service) Provision(ctx context.Context, orgID string, req *domain.CreatePhoneNumberRequest) (*domain.PhoneNumber, error) {
	resp, err := s.provider.CreatePhoneNumber(ctx, &vapi.CreatePhoneNumberRequest{
		Provider: string(domain.PhoneProviderVapi),
		AreaCode: req.AreaCode,
		Number:   req.Number,
	})
	if err != nil {
		return nil, err
	}

	number := &domain.PhoneNumber{
		OrganizationID:        orgID,
		ExternalPhoneNumberID: resp.ID,
		Number:                resp.Number,
		Provider:              domain.PhoneProviderVapi,
		IsActive:              true,
	}
	if err := s.repos.PhoneNumber().Create(ctx, number); err != nil {
		logger.Base().Error("ANOMALY: provider number created but local record failed to persist",
			zap.String("external_phone_number_id", resp.ID),
			zap.Error(err))
		return nil, err
	}
	return number, nil
}

// ImportTwilio registers a number the organization already owns on Twilio.
// The number is verified against the Twilio account inventory first so a
// typo cannot register someone else's number with the provider.
func (s *Service) ImportTwilio(ctx context.Context, orgID string, req *domain.ImportTwilioNumberRequest) (*domain.PhoneNumber, error) {
	owned, err := s.verifier.OwnsNumber(ctx, req.Number)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("number %s is not owned by the configured twilio account", req.Number)
	}

	sid, token := s.twilio.Credentials()
	if req.TwilioSID != "" && req.TwilioAuthToken != "" {
		sid, token = req.TwilioSID, req.TwilioAuthToken
	}
	resp, err := s.provider.CreatePhoneNumber(ctx, &vapi.CreatePhoneNumberRequest{
		Provider:    string(domain.PhoneProviderTwilio),
		Number:      req.Number,
		TwilioSID:   sid,
		TwilioToken: token,
	})
	if err != nil {
		return nil, err
	}

	number := &domain.PhoneNumber{
		OrganizationID:        orgID,
		ExternalPhoneNumberID: resp.ID,
		Number:                req.Number,
		Provider:              domain.PhoneProviderTwilio,
		IsActive:              true,
	}
	if err := s.repos.PhoneNumber().Create(ctx, number); err != nil {
		logger.Base().Error("ANOMALY: provider number created but local record failed to persist",
			zap.String("external_phone_number_id", resp.ID),
			zap.Error(err))
		return nil, err
	}
	return number, nil
}

// Release removes the number from the provider and the local store
func (s *Service) Release(ctx context.Context, orgID, id string) error {
	number, err := s.repos.PhoneNumber().GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if number.ExternalPhoneNumberID != "" {
		if err := s.provider.DeletePhoneNumber(ctx, number.ExternalPhoneNumberID); err != nil {
			logger.Base().Warn("Failed to release number with provider, removing locally anyway",
				zap.String("external_phone_number_id", number.ExternalPhoneNumberID),
				zap.Error(err))
		}
	}
	return s.repos.PhoneNumber().Delete(ctx, orgID, id)
}
