package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/graph"
	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/model"
)

// Daily budget bounds for the wizard, in INR
const (
	MinBrandDailyBudget     = 100
	MaxBrandDailyBudget     = 1000000
	DefaultBrandDailyBudget = 1000
)

// AdvanceBrandOnboarding applies one action to the brand wizard and returns the
// new state. The wizard is stateless on the server: callers send back the state
// they received. Brand calls authenticate with the brand's token, not the merchant's.
func (s *MerchantService) AdvanceBrandOnboarding(ctx context.Context, merchantBMID, merchantName string, state model.BrandOnboardingState, in model.BrandOnboardingInput) (*model.BrandOnboardingResult, error) {
	if merchantName == "" {
		merchantName = "Merchant"
	}
	if state.Step < model.StepSubmitDetails {
		state.Step = model.StepSubmitDetails
	}

	if in.Action == model.ActionReset {
		return &model.BrandOnboardingResult{State: model.BrandOnboardingState{Step: model.StepSubmitDetails}}, nil
	}

	if in.Action == model.ActionSkip && state.Step > model.StepSubmitDetails && state.Step < model.StepLaunchCampaign {
		state.Step++
		return &model.BrandOnboardingResult{State: state}, nil
	}

	switch {
	case state.Step == model.StepSubmitDetails && in.Action == model.ActionSubmit:
		return s.brandSubmit(ctx, merchantBMID, state, in)
	case state.Step == model.StepAwaitApproval && in.Action == model.ActionCheck:
		return s.brandCheck(ctx, merchantBMID, state)
	case state.Step == model.StepCreateAdAccount && in.Action == model.ActionCreate:
		return s.brandCreateAccount(ctx, merchantName, state)
	case state.Step == model.StepChooseCatalog && in.Action == model.ActionSelect:
		return s.brandSelectCatalog(ctx, state, in)
	case state.Step == model.StepLaunchCampaign && in.Action == model.ActionLaunch:
		return s.brandLaunch(ctx, merchantName, state, in)
	}

	return nil, appErrors.NewValidationError("action",
		fmt.Sprintf("Action %q is not available at step %d", in.Action, state.Step))
}

func (s *MerchantService) brandSubmit(ctx context.Context, merchantBMID string, state model.BrandOnboardingState, in model.BrandOnboardingInput) (*model.BrandOnboardingResult, error) {
	if in.AccessToken == "" || in.BrandBMID == "" || in.BrandName == "" || in.ContactEmail == "" || in.ContactName == "" {
		return nil, appErrors.NewValidationError("brand", "Please fill in all fields")
	}
	if merchantBMID == "" {
		return nil, appErrors.NewValidationError("merchant", "Merchant configuration is missing")
	}

	brandCtx := graph.ContextWithToken(ctx, in.AccessToken)
	requestID, err := s.BrandSubmitRequest(brandCtx, in.BrandBMID, merchantBMID, in.ContactEmail, in.ContactName)
	if err != nil {
		return nil, fmt.Errorf("Failed to submit: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"brand_bm_id": in.BrandBMID, "request_id": requestID}).Info("Brand request submitted")

	state.Step = model.StepAwaitApproval
	state.AccessToken = in.AccessToken
	state.BrandBusinessID = in.BrandBMID
	state.RequestID = requestID
	return &model.BrandOnboardingResult{State: state, Message: "Request submitted! ID: " + requestID}, nil
}

func (s *MerchantService) brandCheck(ctx context.Context, merchantBMID string, state model.BrandOnboardingState) (*model.BrandOnboardingResult, error) {
	if err := requireBrandCredentials(state); err != nil {
		return nil, err
	}

	status, err := s.BrandCheckRequestStatus(graph.ContextWithToken(ctx, state.AccessToken), state.BrandBusinessID, merchantBMID)
	if err != nil {
		return nil, err
	}

	result := &model.BrandOnboardingResult{Status: status.Status}
	switch status.Status {
	case model.RequestApproved:
		state.Step = model.StepCreateAdAccount
		result.Message = "Your request has been approved!"
	case model.RequestPending:
		result.Message = "Your request is still pending approval"
	case model.RequestRejected:
		result.Message = "Your request was rejected"
	default:
		result.Message = status.Message
	}
	result.State = state
	return result, nil
}

func (s *MerchantService) brandCreateAccount(ctx context.Context, merchantName string, state model.BrandOnboardingState) (*model.BrandOnboardingResult, error) {
	if err := requireBrandCredentials(state); err != nil {
		return nil, err
	}

	id, err := s.BrandCreateAdAccount(graph.ContextWithToken(ctx, state.AccessToken), state.BrandBusinessID, merchantName)
	if err != nil {
		return nil, fmt.Errorf("Failed to create: %w", err)
	}

	state.AdAccountID = id
	state.Step = model.StepChooseCatalog
	return &model.BrandOnboardingResult{State: state, Message: "Ad account created! ID: " + id}, nil
}

// brandSelectCatalog lists the shared catalogs when no catalog is given,
// otherwise picks one of them.
func (s *MerchantService) brandSelectCatalog(ctx context.Context, state model.BrandOnboardingState, in model.BrandOnboardingInput) (*model.BrandOnboardingResult, error) {
	if err := requireBrandCredentials(state); err != nil {
		return nil, err
	}

	catalogs, err := s.BrandGetSharedCatalogs(graph.ContextWithToken(ctx, state.AccessToken), state.BrandBusinessID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load catalogs: %w", err)
	}

	if in.CatalogID == "" {
		msg := fmt.Sprintf("Found %d catalog segment(s)", len(catalogs))
		if len(catalogs) == 0 {
			msg = "No catalog segments available yet. The merchant needs to share a catalog with you."
		}
		return &model.BrandOnboardingResult{State: state, Message: msg, Catalogs: catalogs}, nil
	}

	for _, c := range catalogs {
		if c.ID == in.CatalogID {
			state.CatalogID = c.ID
			state.Step = model.StepLaunchCampaign
			return &model.BrandOnboardingResult{State: state}, nil
		}
	}
	return nil, appErrors.NewValidationError("catalog_id", "Catalog "+in.CatalogID+" is not shared with this brand")
}

func (s *MerchantService) brandLaunch(ctx context.Context, merchantName string, state model.BrandOnboardingState, in model.BrandOnboardingInput) (*model.BrandOnboardingResult, error) {
	adAccountID := firstNonEmpty(state.AdAccountID, in.AdAccountID)
	catalogID := firstNonEmpty(state.CatalogID, in.CatalogID)
	token := firstNonEmpty(state.AccessToken, in.AccessToken)
	if adAccountID == "" || catalogID == "" || token == "" {
		return nil, appErrors.NewValidationError("state", "Missing required information")
	}

	budget := in.DailyBudget
	if budget == 0 {
		budget = DefaultBrandDailyBudget
	}
	if budget < MinBrandDailyBudget || budget > MaxBrandDailyBudget {
		return nil, appErrors.NewValidationError("daily_budget",
			fmt.Sprintf("Daily budget must be between %d and %d INR", MinBrandDailyBudget, MaxBrandDailyBudget))
	}

	name := in.CampaignName
	if name == "" {
		name = "CPAS Campaign with " + merchantName
	}

	// INR to paisa
	campaign, err := s.BrandCreateCampaign(graph.ContextWithToken(ctx, token), adAccountID, catalogID, name, budget*100)
	if err != nil {
		return nil, err
	}

	state.AdAccountID = adAccountID
	state.CatalogID = catalogID
	return &model.BrandOnboardingResult{State: state, Message: "Campaign created successfully!", Campaign: campaign}, nil
}

func requireBrandCredentials(state model.BrandOnboardingState) error {
	if state.AccessToken == "" || state.BrandBusinessID == "" {
		return appErrors.NewValidationError("state", "Missing brand credentials. Please restart onboarding.")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
