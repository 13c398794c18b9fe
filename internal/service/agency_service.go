// internal/service/agency_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

// AccountDefaults are used when creating ad accounts and campaigns
type AccountDefaults struct {
	TimezoneID  int
	Currency    string
	DailyBudget int
}

func DefaultsFromConfig(cfg *config.Config) AccountDefaults {
	return AccountDefaults{
		TimezoneID:  cfg.DefaultTimezoneID,
		Currency:    cfg.DefaultCurrency,
		DailyBudget: cfg.DefaultDailyBudget,
	}
}

type AgencyService struct {
	CPASRepo  repository.CPASRepositoryInterface
	Directory *MerchantDirectory
	Defaults  AccountDefaults
	Log       logrus.FieldLogger
}

// CampaignInput describes a CPAS campaign. Zero DailyBudget uses the default,
// empty TargetingCountries means India.
type CampaignInput struct {
	AdAccountID        string   `json:"ad_account_id" validate:"required"`
	CatalogSegmentID   string   `json:"catalog_segment_id" validate:"required"`
	CampaignName       string   `json:"campaign_name" validate:"required"`
	DailyBudget        int      `json:"daily_budget" validate:"gte=0"`
	TargetingCountries []string `json:"targeting_countries,omitempty" validate:"dive,len=2"`
}

// ValidateSetup checks the token, then the agency BM, then the brand BM.
// The returned validation is filled up to the first failure.
func (s *AgencyService) ValidateSetup(ctx context.Context, agencyBMID, brandBMID string) (*model.AgencyValidation, error) {
	result := &model.AgencyValidation{}

	user, err := s.CPASRepo.ValidateAccessToken(ctx)
	if err != nil {
		return result, fmt.Errorf("Invalid access token: %w", err)
	}
	result.TokenValid = true
	result.UserInfo = user

	agency, err := s.CPASRepo.GetBusinessInfo(ctx, agencyBMID)
	if err != nil {
		return result, fmt.Errorf("Invalid agency Business Manager: %w", err)
	}
	result.AgencyValid = true
	result.AgencyInfo = agency

	brand, err := s.CPASRepo.GetBusinessInfo(ctx, brandBMID)
	if err != nil {
		return result, fmt.Errorf("Invalid brand Business Manager: %w", err)
	}
	result.BrandValid = true
	result.BrandInfo = brand

	return result, nil
}

func (s *AgencyService) ListMerchants() []model.Merchant {
	return s.Directory.List()
}

// InitiatePartnership sends a collaboration request to a directory merchant.
// Unknown merchants and merchants without a configured BM id fail before any call.
func (s *AgencyService) InitiatePartnership(ctx context.Context, brandBMID, merchantKey, contactEmail, contactName string, isAgency bool) (string, error) {
	merchant, ok := s.Directory.ByKey(merchantKey)
	if !ok {
		return "", appErrors.NewMerchantNotFound(merchantKey)
	}
	if !merchant.Active() {
		return "", appErrors.NewValidationError("merchant", fmt.Sprintf(
			"Merchant %s does not have a configured Business Manager ID. Set %s with the actual BM ID.",
			merchant.Name, merchantEnvVar(merchant.Key)))
	}

	requester := model.RequesterBrand
	if isAgency {
		requester = model.RequesterAgency
	}

	id, err := s.CPASRepo.SendCollaborationRequest(ctx, brandBMID, merchant.BusinessID, contactEmail, contactName, requester)
	if err != nil {
		return "", err
	}
	s.Log.WithFields(logrus.Fields{"merchant": merchant.Key, "request_id": id}).Info("Collaboration request sent")
	return id, nil
}

func (s *AgencyService) GetSentRequests(ctx context.Context, brandBMID, status string) ([]model.CollabRequest, error) {
	return s.CPASRepo.GetCollaborationRequests(ctx, brandBMID, status)
}

// GetPartnershipStatus finds the brand's request addressed to the merchant
func (s *AgencyService) GetPartnershipStatus(ctx context.Context, brandBMID, merchantKey string) (*model.PartnershipStatus, error) {
	merchant, ok := s.Directory.ByKey(merchantKey)
	if !ok {
		return nil, appErrors.NewMerchantNotFound(merchantKey)
	}

	requests, err := s.GetSentRequests(ctx, brandBMID, "")
	if err != nil {
		return nil, err
	}

	for _, req := range requests {
		if req.ReceiverBusiness.ID == merchant.BusinessID {
			status := req.RequestStatus
			if status == "" {
				status = "unknown"
			}
			return &model.PartnershipStatus{
				Status:      status,
				RequestID:   req.ID,
				CreatedTime: req.CreatedTime,
				Merchant:    &merchant,
			}, nil
		}
	}

	return &model.PartnershipStatus{
		Status:   model.PartnershipNoRequest,
		Merchant: &merchant,
		Message:  "No collaboration request found for this merchant",
	}, nil
}

// GetSuggestedPartners lists the partners suggested for the brand, labelling
// the ones that are in the merchant directory
func (s *AgencyService) GetSuggestedPartners(ctx context.Context, brandBMID string) ([]model.SuggestedPartner, error) {
	partners, err := s.CPASRepo.GetSuggestedPartners(ctx, brandBMID)
	if err != nil {
		return nil, err
	}

	suggested := make([]model.SuggestedPartner, 0, len(partners))
	for _, p := range partners {
		sp := model.SuggestedPartner{Partner: p}
		if m, ok := s.Directory.ByBusinessID(p.ID); ok {
			sp.Merchant = &m
		}
		suggested = append(suggested, sp)
	}
	return suggested, nil
}

func (s *AgencyService) GetAvailableCatalogSegments(ctx context.Context, brandBMID string) ([]model.CatalogSegment, error) {
	return s.CPASRepo.GetSharedCatalogSegments(ctx, brandBMID)
}

// SetupCollabAdAccount creates the brand's collaborative ad account, named after the merchant
func (s *AgencyService) SetupCollabAdAccount(ctx context.Context, brandBMID, merchantName string) (string, error) {
	id, err := s.CPASRepo.CreateAdAccount(ctx, brandBMID, "CPAS - "+merchantName, s.Defaults.TimezoneID, s.Defaults.Currency)
	if err != nil {
		return "", err
	}
	s.Log.WithFields(logrus.Fields{"brand_bm_id": brandBMID, "ad_account_id": id}).Info("Collaborative ad account created")
	return id, nil
}

func (s *AgencyService) GetBrandAdAccounts(ctx context.Context, brandBMID string) ([]model.AdAccount, error) {
	return s.CPASRepo.GetAdAccounts(ctx, brandBMID)
}

// CreateCPASCampaign creates a paused campaign with one ad set named "<campaign> - Ad Set"
func (s *AgencyService) CreateCPASCampaign(ctx context.Context, in CampaignInput) (*model.CampaignResult, error) {
	budget := in.DailyBudget
	if budget == 0 {
		budget = s.Defaults.DailyBudget
	}

	res, err := s.CPASRepo.CreateCampaignWithAdSet(ctx, repository.CampaignSpec{
		AdAccountID:      in.AdAccountID,
		CatalogSegmentID: in.CatalogSegmentID,
		CampaignName:     in.CampaignName,
		AdSetName:        in.CampaignName + " - Ad Set",
		DailyBudget:      budget,
		Targeting:        repository.CountryTargeting(in.TargetingCountries),
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"campaign_id": res.CampaignID, "ad_set_id": res.AdSetID}).Info("CPAS campaign created")
	return res, nil
}

// GetFullOnboardingStatus walks the onboarding checklist for a brand and a merchant.
// Lookup failures after the merchant check leave the matching step unchecked.
func (s *AgencyService) GetFullOnboardingStatus(ctx context.Context, brandBMID, merchantKey string) (*model.OnboardingStatus, error) {
	status := &model.OnboardingStatus{Details: map[string]any{}}

	partnership, err := s.GetPartnershipStatus(ctx, brandBMID, merchantKey)
	switch {
	case appErrors.IsMerchantNotFound(err):
		return nil, err
	case err != nil:
		status.Details["request_error"] = err.Error()
	case partnership.Status != model.PartnershipNoRequest:
		status.ConnectionRequest = true
		status.Details["request_id"] = partnership.RequestID
		status.Details["request_status"] = partnership.Status
		status.RequestApproved = partnership.Status == model.RequestApproved
	}

	if catalogs, err := s.GetAvailableCatalogSegments(ctx, brandBMID); err == nil && len(catalogs) > 0 {
		status.CatalogAvailable = true
		status.Details["catalog_count"] = len(catalogs)
	}

	if accounts, err := s.GetBrandAdAccounts(ctx, brandBMID); err == nil && len(accounts) > 0 {
		status.AdAccountReady = true
		status.Details["ad_account_count"] = len(accounts)
	}

	return status, nil
}

func merchantEnvVar(key string) string {
	return "CPAS_" + strings.ToUpper(key) + "_BM_ID"
}
