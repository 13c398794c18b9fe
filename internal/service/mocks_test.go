package service_test

import (
	"context"
	"sync"

	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

// MockMediaRepo answers with canned values and records every call by name
type MockMediaRepo struct {
	Medias      []model.AdvertisableMedia
	ListErr     error
	Eligibility *model.AdvertisableMedia
	EligErr     error
	Likes       *int64
	CountsErr   error
	Reach       *int64
	InsightsErr error
	VideoID     string
	VideoErr    error
	CreativeID  string
	CreativeErr error
	AdID        string
	AdErr       error
	PanicOn     string

	Calls     []string
	Shortcode string
	Creative  repository.CreativeParams
}

func (m *MockMediaRepo) call(name string) {
	m.Calls = append(m.Calls, name)
	if m.PanicOn == name {
		panic("kaboom")
	}
}

func (m *MockMediaRepo) ListAdvertisableMedias(ctx context.Context, igAccountID string, opts repository.ListMediasOptions) ([]model.AdvertisableMedia, error) {
	m.call("list")
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if opts.OnPage != nil {
		opts.OnPage(len(m.Medias), len(m.Medias))
	}
	return m.Medias, nil
}

func (m *MockMediaRepo) GetEligibilityByAdCode(ctx context.Context, igAccountID, adCode string) (*model.AdvertisableMedia, error) {
	m.call("eligibility_ad_code")
	return m.Eligibility, m.EligErr
}

func (m *MockMediaRepo) GetEligibilityByShortcode(ctx context.Context, igAccountID, shortcode string) (*model.AdvertisableMedia, error) {
	m.call("eligibility_shortcode")
	m.Shortcode = shortcode
	return m.Eligibility, m.EligErr
}

func (m *MockMediaRepo) GetMediaCounts(ctx context.Context, mediaID string) (*int64, *int64, error) {
	m.call("counts")
	if m.CountsErr != nil {
		return nil, nil, m.CountsErr
	}
	return m.Likes, m.Likes, nil
}

func (m *MockMediaRepo) GetMediaInsights(ctx context.Context, mediaID string) (*int64, *int64, *int64, error) {
	m.call("insights")
	if m.InsightsErr != nil {
		return nil, nil, nil, m.InsightsErr
	}
	return m.Reach, m.Reach, m.Reach, nil
}

func (m *MockMediaRepo) UploadVideo(ctx context.Context, adAccountID, mediaID, adCode string) (string, error) {
	m.call("upload")
	return m.VideoID, m.VideoErr
}

func (m *MockMediaRepo) CreateCreative(ctx context.Context, p repository.CreativeParams) (string, error) {
	m.call("creative")
	m.Creative = p
	return m.CreativeID, m.CreativeErr
}

func (m *MockMediaRepo) CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error) {
	m.call("ad")
	if m.AdErr != nil {
		return "", m.AdErr
	}
	return m.AdID, nil
}

// MockRecorder keeps what the booster reports
type MockRecorder struct {
	mu       sync.Mutex
	Runs     []*model.Run
	Rows     []model.RowResultEvent
	Summary  *model.Summary
	StartErr error
}

func (r *MockRecorder) StartRun(ctx context.Context, run *model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Runs = append(r.Runs, run)
	return r.StartErr
}

func (r *MockRecorder) RecordRow(ctx context.Context, ev model.RowResultEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rows = append(r.Rows, ev)
	return nil
}

func (r *MockRecorder) FinishRun(ctx context.Context, runID string, summary model.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Summary = &summary
	return nil
}

// MockCPASRepo is a scripted CPAS repository. Requests are keyed by status
// ("" for all); ctx tokens seen by each call are kept in Tokens.
type MockCPASRepo struct {
	User        *model.User
	TokenErr    error
	Businesses  map[string]*model.Business
	Requests    map[string][]model.CollabRequest
	RequestsErr error
	SendID      string
	SendErr     error
	AcceptErr   map[string]error
	Partners    []model.Partner
	PartnersErr error
	Owned       []model.CatalogSegment
	Shared      []model.CatalogSegment
	SharedErr   error
	AccountID   string
	AccountErr  error
	Accounts    []model.AdAccount
	Campaign    *model.CampaignResult
	CampaignErr error

	Calls        []string
	Tokens       []string
	Sent         []string
	AccountName  string
	CampaignSpec repository.CampaignSpec
}

func (m *MockCPASRepo) call(ctx context.Context, name string) {
	m.Calls = append(m.Calls, name)
	m.Tokens = append(m.Tokens, graph.TokenFromContext(ctx))
}

func (m *MockCPASRepo) SendCollaborationRequest(ctx context.Context, brandBMID, merchantBMID, contactEmail, contactName, requesterType string) (string, error) {
	m.call(ctx, "send")
	m.Sent = []string{brandBMID, merchantBMID, contactEmail, contactName, requesterType}
	return m.SendID, m.SendErr
}

func (m *MockCPASRepo) GetCollaborationRequests(ctx context.Context, businessID, status string) ([]model.CollabRequest, error) {
	m.call(ctx, "requests:"+status)
	if m.RequestsErr != nil {
		return nil, m.RequestsErr
	}
	return m.Requests[status], nil
}

func (m *MockCPASRepo) AcceptCollaborationRequest(ctx context.Context, requestID string) error {
	m.call(ctx, "accept:"+requestID)
	return m.AcceptErr[requestID]
}

func (m *MockCPASRepo) RejectCollaborationRequest(ctx context.Context, requestID string) error {
	m.call(ctx, "reject:"+requestID)
	return m.AcceptErr[requestID]
}

func (m *MockCPASRepo) GetSuggestedPartners(ctx context.Context, businessID string) ([]model.Partner, error) {
	m.call(ctx, "suggested")
	return m.Partners, m.PartnersErr
}

func (m *MockCPASRepo) GetCollaborativeAdsMerchants(ctx context.Context, businessID string) ([]model.Partner, error) {
	m.call(ctx, "partners")
	return m.Partners, m.PartnersErr
}

func (m *MockCPASRepo) GetOwnedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error) {
	m.call(ctx, "owned")
	return m.Owned, nil
}

func (m *MockCPASRepo) GetSharedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error) {
	m.call(ctx, "shared")
	return m.Shared, m.SharedErr
}

func (m *MockCPASRepo) ShareCatalogSegment(ctx context.Context, catalogID, brandBMID string) error {
	m.call(ctx, "share:"+catalogID)
	return nil
}

func (m *MockCPASRepo) CreateAdAccount(ctx context.Context, businessID, name string, timezoneID int, currency string) (string, error) {
	m.call(ctx, "create_account")
	m.AccountName = name
	return m.AccountID, m.AccountErr
}

func (m *MockCPASRepo) GetAdAccounts(ctx context.Context, businessID string) ([]model.AdAccount, error) {
	m.call(ctx, "accounts")
	return m.Accounts, nil
}

func (m *MockCPASRepo) CreateCampaign(ctx context.Context, adAccountID, name string) (string, error) {
	m.call(ctx, "campaign")
	return "", nil
}

func (m *MockCPASRepo) CreateAdSet(ctx context.Context, p repository.AdSetParams) (string, error) {
	m.call(ctx, "adset")
	return "", nil
}

func (m *MockCPASRepo) CreateCampaignWithAdSet(ctx context.Context, spec repository.CampaignSpec) (*model.CampaignResult, error) {
	m.call(ctx, "campaign_with_adset")
	m.CampaignSpec = spec
	return m.Campaign, m.CampaignErr
}

func (m *MockCPASRepo) GetBusinessInfo(ctx context.Context, businessID string) (*model.Business, error) {
	m.call(ctx, "business:"+businessID)
	if b, ok := m.Businesses[businessID]; ok {
		return b, nil
	}
	return nil, errBusinessNotFound
}

func (m *MockCPASRepo) ValidateAccessToken(ctx context.Context) (*model.User, error) {
	m.call(ctx, "me")
	return m.User, m.TokenErr
}
