package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/logger"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/service"
)

func newMerchant(repo *MockCPASRepo) *service.MerchantService {
	return &service.MerchantService{
		CPASRepo: repo,
		Defaults: service.AccountDefaults{TimezoneID: 50, Currency: "INR", DailyBudget: 100000},
		Log:      logger.Discard(),
	}
}

func TestBulkApproveCountsEveryID(t *testing.T) {
	repo := &MockCPASRepo{AcceptErr: map[string]error{"r2": errors.New("API Error 100: already handled")}}

	res := newMerchant(repo).BulkApprove(context.Background(), []string{"r1", "r2", "r3"})
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Details, 3)
	assert.Equal(t, model.BulkDetail{ID: "r2", Status: "failed", Error: "API Error 100: already handled"}, res.Details[1])
	assert.Equal(t, "approved", res.Details[2].Status)
	assert.Equal(t, []string{"accept:r1", "accept:r2", "accept:r3"}, repo.Calls)
}

func TestBulkRejectStatus(t *testing.T) {
	res := newMerchant(&MockCPASRepo{}).BulkReject(context.Background(), []string{"r1"})
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, "rejected", res.Details[0].Status)
}

func TestDashboardStatsIgnoresFailures(t *testing.T) {
	repo := &MockCPASRepo{
		Requests: map[string][]model.CollabRequest{
			model.RequestPending:  {{ID: "p1"}, {ID: "p2"}},
			model.RequestApproved: {{ID: "a1"}},
		},
		PartnersErr: errors.New("API Error 3: no capability"),
		Owned:       []model.CatalogSegment{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}},
	}

	stats := newMerchant(repo).GetDashboardStats(context.Background(), "merchant")
	assert.Equal(t, model.DashboardStats{PendingRequests: 2, ApprovedRequests: 1, ActivePartners: 0, CatalogSegments: 3}, stats)
}

func TestValidateMerchantSetup(t *testing.T) {
	repo := &MockCPASRepo{
		User:       &model.User{ID: "u"},
		Businesses: map[string]*model.Business{"m": {ID: "m", Name: "Blinkit"}},
	}

	res, err := newMerchant(repo).ValidateMerchantSetup(context.Background(), "m")
	require.NoError(t, err)
	assert.True(t, res.TokenValid)
	assert.True(t, res.MerchantValid)
	assert.Equal(t, "Blinkit", res.MerchantInfo.Name)
}

func TestBrandWizardHappyPath(t *testing.T) {
	repo := &MockCPASRepo{
		SendID: "req_1",
		Requests: map[string][]model.CollabRequest{
			"": {{ID: "req_1", RequestStatus: model.RequestApproved, ReceiverBusiness: model.BusinessRef{ID: "merchant_bm"}}},
		},
		AccountID: "act_7",
		Shared:    []model.CatalogSegment{{ID: "cat_1", Name: "Snacks"}},
		Campaign:  &model.CampaignResult{CampaignID: "c1", AdSetID: "as1"},
	}
	svc := newMerchant(repo)
	ctx := graph.ContextWithToken(context.Background(), "merchant_token")
	advance := func(state model.BrandOnboardingState, in model.BrandOnboardingInput) model.BrandOnboardingState {
		t.Helper()
		res, err := svc.AdvanceBrandOnboarding(ctx, "merchant_bm", "Blinkit", state, in)
		require.NoError(t, err)
		return res.State
	}

	state := advance(model.BrandOnboardingState{}, model.BrandOnboardingInput{
		Action:       model.ActionSubmit,
		AccessToken:  "brand_token",
		BrandBMID:    "brand_bm",
		BrandName:    "Acme",
		ContactEmail: "ops@acme.test",
		ContactName:  "Ops",
	})
	assert.Equal(t, model.StepAwaitApproval, state.Step)
	assert.Equal(t, "req_1", state.RequestID)
	assert.Equal(t, model.RequesterBrand, repo.Sent[4])

	state = advance(state, model.BrandOnboardingInput{Action: model.ActionCheck})
	assert.Equal(t, model.StepCreateAdAccount, state.Step)

	state = advance(state, model.BrandOnboardingInput{Action: model.ActionCreate})
	assert.Equal(t, model.StepChooseCatalog, state.Step)
	assert.Equal(t, "act_7", state.AdAccountID)
	assert.Equal(t, "CPAS - Blinkit", repo.AccountName)

	res, err := svc.AdvanceBrandOnboarding(ctx, "merchant_bm", "Blinkit", state, model.BrandOnboardingInput{Action: model.ActionSelect})
	require.NoError(t, err)
	assert.Equal(t, model.StepChooseCatalog, res.State.Step)
	assert.Len(t, res.Catalogs, 1)

	state = advance(state, model.BrandOnboardingInput{Action: model.ActionSelect, CatalogID: "cat_1"})
	assert.Equal(t, model.StepLaunchCampaign, state.Step)

	res, err = svc.AdvanceBrandOnboarding(ctx, "merchant_bm", "Blinkit", state, model.BrandOnboardingInput{Action: model.ActionLaunch})
	require.NoError(t, err)
	assert.Equal(t, "c1", res.Campaign.CampaignID)
	assert.Equal(t, "CPAS Campaign with Blinkit", repo.CampaignSpec.CampaignName)
	assert.Equal(t, 100000, repo.CampaignSpec.DailyBudget)
	assert.Equal(t, "act_7", repo.CampaignSpec.AdAccountID)

	for _, tok := range repo.Tokens {
		assert.Equal(t, "brand_token", tok)
	}
}

func TestBrandWizardPendingStaysPut(t *testing.T) {
	repo := &MockCPASRepo{Requests: map[string][]model.CollabRequest{
		"": {{ID: "req_1", RequestStatus: model.RequestPending, ReceiverBusiness: model.BusinessRef{ID: "merchant_bm"}}},
	}}
	state := model.BrandOnboardingState{Step: model.StepAwaitApproval, AccessToken: "t", BrandBusinessID: "b"}

	res, err := newMerchant(repo).AdvanceBrandOnboarding(context.Background(), "merchant_bm", "", state, model.BrandOnboardingInput{Action: model.ActionCheck})
	require.NoError(t, err)
	assert.Equal(t, model.StepAwaitApproval, res.State.Step)
	assert.Equal(t, model.RequestPending, res.Status)
}

func TestBrandWizardSkipAndReset(t *testing.T) {
	svc := newMerchant(&MockCPASRepo{})
	state := model.BrandOnboardingState{Step: model.StepCreateAdAccount, AccessToken: "t", BrandBusinessID: "b", RequestID: "r"}

	res, err := svc.AdvanceBrandOnboarding(context.Background(), "m", "", state, model.BrandOnboardingInput{Action: model.ActionSkip})
	require.NoError(t, err)
	assert.Equal(t, model.StepChooseCatalog, res.State.Step)
	assert.Equal(t, "r", res.State.RequestID)

	res, err = svc.AdvanceBrandOnboarding(context.Background(), "m", "", res.State, model.BrandOnboardingInput{Action: model.ActionReset})
	require.NoError(t, err)
	assert.Equal(t, model.BrandOnboardingState{Step: model.StepSubmitDetails}, res.State)
}

func TestBrandWizardRejectsBadInput(t *testing.T) {
	repo := &MockCPASRepo{}
	svc := newMerchant(repo)
	var ve *appErrors.ValidationError

	_, err := svc.AdvanceBrandOnboarding(context.Background(), "m", "", model.BrandOnboardingState{}, model.BrandOnboardingInput{Action: model.ActionSubmit, BrandBMID: "b"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please fill in all fields", ve.Message)

	_, err = svc.AdvanceBrandOnboarding(context.Background(), "m", "", model.BrandOnboardingState{}, model.BrandOnboardingInput{Action: model.ActionSkip})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.AdvanceBrandOnboarding(context.Background(), "m", "", model.BrandOnboardingState{Step: model.StepCreateAdAccount}, model.BrandOnboardingInput{Action: model.ActionCreate})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Missing brand credentials. Please restart onboarding.", ve.Message)

	_, err = svc.AdvanceBrandOnboarding(context.Background(), "m", "", model.BrandOnboardingState{Step: model.StepLaunchCampaign, AccessToken: "t"}, model.BrandOnboardingInput{Action: model.ActionLaunch})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Missing required information", ve.Message)

	_, err = svc.AdvanceBrandOnboarding(context.Background(), "m", "", model.BrandOnboardingState{Step: model.StepLaunchCampaign, AccessToken: "t", AdAccountID: "a", CatalogID: "c"},
		model.BrandOnboardingInput{Action: model.ActionLaunch, DailyBudget: 50})
	assert.ErrorAs(t, err, &ve)

	assert.Empty(t, repo.Calls)
}
