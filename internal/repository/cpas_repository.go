package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/model"
)

const defaultListLimit = 50

const (
	catalogFields   = "id,name,product_count,vertical"
	adAccountFields = "id,name,account_status,currency,timezone_name"
	businessFields  = "id,name,primary_page,verification_status"
)

// Campaign and ad set defaults for CPAS campaigns
const (
	ObjectiveOutcomeSales  = "OUTCOME_SALES"
	BillingImpressions     = "IMPRESSIONS"
	GoalOffsiteConversions = "OFFSITE_CONVERSIONS"
	StatusPaused           = "PAUSED"
)

var DefaultTargetingCountries = []string{"IN"}

type CPASRepositoryInterface interface {
	// Collaboration requests
	SendCollaborationRequest(ctx context.Context, brandBMID, merchantBMID, contactEmail, contactName, requesterType string) (string, error)
	GetCollaborationRequests(ctx context.Context, businessID, status string) ([]model.CollabRequest, error)
	AcceptCollaborationRequest(ctx context.Context, requestID string) error
	RejectCollaborationRequest(ctx context.Context, requestID string) error

	// Partner discovery
	GetSuggestedPartners(ctx context.Context, businessID string) ([]model.Partner, error)
	GetCollaborativeAdsMerchants(ctx context.Context, businessID string) ([]model.Partner, error)

	// Catalog segments
	GetOwnedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error)
	GetSharedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error)
	ShareCatalogSegment(ctx context.Context, catalogID, brandBMID string) error

	// Ad accounts and campaigns
	CreateAdAccount(ctx context.Context, businessID, name string, timezoneID int, currency string) (string, error)
	GetAdAccounts(ctx context.Context, businessID string) ([]model.AdAccount, error)
	CreateCampaign(ctx context.Context, adAccountID, name string) (string, error)
	CreateAdSet(ctx context.Context, p AdSetParams) (string, error)
	CreateCampaignWithAdSet(ctx context.Context, spec CampaignSpec) (*model.CampaignResult, error)

	// Business info
	GetBusinessInfo(ctx context.Context, businessID string) (*model.Business, error)
	ValidateAccessToken(ctx context.Context) (*model.User, error)
}

// AdSetParams describes a CPAS ad set. Nil Targeting means India only.
type AdSetParams struct {
	AdAccountID      string
	CampaignID       string
	Name             string
	CatalogSegmentID string
	DailyBudget      int
	Targeting        map[string]any
}

// CampaignSpec is a campaign plus its single ad set
type CampaignSpec struct {
	AdAccountID      string
	CatalogSegmentID string
	CampaignName     string
	AdSetName        string
	DailyBudget      int
	Targeting        map[string]any
}

// CountryTargeting builds a geo targeting spec; no countries means nil
func CountryTargeting(countries []string) map[string]any {
	if len(countries) == 0 {
		return nil
	}
	return map[string]any{
		"geo_locations": map[string]any{"countries": countries},
	}
}

// CPASRepository talks to the Collaborative Ads endpoints of the Graph API
type CPASRepository struct {
	Client *graph.Client
}

func (r *CPASRepository) SendCollaborationRequest(ctx context.Context, brandBMID, merchantBMID, contactEmail, contactName, requesterType string) (string, error) {
	resp, err := r.Client.Post(ctx, brandBMID+"/collaborative_ads_collaboration_requests", map[string]any{
		"brands":                    merchantBMID,
		"contact_email":             contactEmail,
		"contact_name":              contactName,
		"requester_agency_or_brand": requesterType,
	})
	if err != nil {
		return "", err
	}
	if resp.ID() == "" {
		return "", errors.New("Request ID not found in response")
	}
	return resp.ID(), nil
}

func (r *CPASRepository) GetCollaborationRequests(ctx context.Context, businessID, status string) ([]model.CollabRequest, error) {
	params := map[string]any{"limit": defaultListLimit}
	if status != "" {
		params["status"] = status
	}
	return list[model.CollabRequest](ctx, r.Client, businessID+"/collaborative_ads_collaboration_requests", params)
}

func (r *CPASRepository) AcceptCollaborationRequest(ctx context.Context, requestID string) error {
	_, err := r.Client.Post(ctx, requestID, map[string]any{"request_status": "approve"})
	return err
}

func (r *CPASRepository) RejectCollaborationRequest(ctx context.Context, requestID string) error {
	_, err := r.Client.Post(ctx, requestID, map[string]any{"request_status": "reject"})
	return err
}

func (r *CPASRepository) GetSuggestedPartners(ctx context.Context, businessID string) ([]model.Partner, error) {
	return list[model.Partner](ctx, r.Client, businessID+"/collaborative_ads_suggested_partners", map[string]any{"limit": defaultListLimit})
}

func (r *CPASRepository) GetCollaborativeAdsMerchants(ctx context.Context, businessID string) ([]model.Partner, error) {
	return list[model.Partner](ctx, r.Client, businessID+"/collaborative_ads_merchants", map[string]any{"limit": defaultListLimit})
}

func (r *CPASRepository) GetOwnedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error) {
	return list[model.CatalogSegment](ctx, r.Client, businessID+"/owned_product_catalogs", map[string]any{
		"limit":  defaultListLimit,
		"fields": catalogFields,
	})
}

// GetSharedCatalogSegments lists catalogs other businesses shared with businessID
func (r *CPASRepository) GetSharedCatalogSegments(ctx context.Context, businessID string) ([]model.CatalogSegment, error) {
	return list[model.CatalogSegment](ctx, r.Client, businessID+"/client_product_catalogs", map[string]any{
		"limit":  defaultListLimit,
		"fields": catalogFields,
	})
}

func (r *CPASRepository) ShareCatalogSegment(ctx context.Context, catalogID, brandBMID string) error {
	_, err := r.Client.Post(ctx, catalogID+"/agencies", map[string]any{
		"business":        brandBMID,
		"permitted_tasks": []string{"ADVERTISE"},
	})
	return err
}

func (r *CPASRepository) CreateAdAccount(ctx context.Context, businessID, name string, timezoneID int, currency string) (string, error) {
	resp, err := r.Client.Post(ctx, businessID+"/adaccount", map[string]any{
		"name":           name,
		"timezone_id":    timezoneID,
		"currency":       currency,
		"end_advertiser": businessID,
		"media_agency":   businessID,
		"partner":        "NONE",
	})
	if err != nil {
		return "", err
	}
	if resp.ID() == "" {
		return "", errors.New("Ad account ID not found in response")
	}
	return resp.ID(), nil
}

func (r *CPASRepository) GetAdAccounts(ctx context.Context, businessID string) ([]model.AdAccount, error) {
	return list[model.AdAccount](ctx, r.Client, businessID+"/owned_ad_accounts", map[string]any{
		"limit":  defaultListLimit,
		"fields": adAccountFields,
	})
}

func (r *CPASRepository) CreateCampaign(ctx context.Context, adAccountID, name string) (string, error) {
	resp, err := r.Client.Post(ctx, ActPrefixed(adAccountID)+"/campaigns", map[string]any{
		"name":                  name,
		"objective":             ObjectiveOutcomeSales,
		"status":                StatusPaused,
		"special_ad_categories": []string{},
	})
	if err != nil {
		return "", err
	}
	if resp.ID() == "" {
		return "", errors.New("Campaign ID not found in response")
	}
	return resp.ID(), nil
}

func (r *CPASRepository) CreateAdSet(ctx context.Context, p AdSetParams) (string, error) {
	targeting := p.Targeting
	if targeting == nil {
		targeting = CountryTargeting(DefaultTargetingCountries)
	}

	resp, err := r.Client.Post(ctx, ActPrefixed(p.AdAccountID)+"/adsets", map[string]any{
		"name":              p.Name,
		"campaign_id":       p.CampaignID,
		"daily_budget":      p.DailyBudget,
		"billing_event":     BillingImpressions,
		"optimization_goal": GoalOffsiteConversions,
		"targeting":         targeting,
		"promoted_object":   map[string]any{"product_catalog_id": p.CatalogSegmentID},
		"status":            StatusPaused,
	})
	if err != nil {
		return "", err
	}
	if resp.ID() == "" {
		return "", errors.New("Ad set ID not found in response")
	}
	return resp.ID(), nil
}

// CreateCampaignWithAdSet creates a paused OUTCOME_SALES campaign and its ad set.
// A failed ad set leaves the campaign in place; the error names its id.
func (r *CPASRepository) CreateCampaignWithAdSet(ctx context.Context, spec CampaignSpec) (*model.CampaignResult, error) {
	campaignID, err := r.CreateCampaign(ctx, spec.AdAccountID, spec.CampaignName)
	if err != nil {
		return nil, fmt.Errorf("Failed to create campaign: %w", err)
	}

	adSetID, err := r.CreateAdSet(ctx, AdSetParams{
		AdAccountID:      spec.AdAccountID,
		CampaignID:       campaignID,
		Name:             spec.AdSetName,
		CatalogSegmentID: spec.CatalogSegmentID,
		DailyBudget:      spec.DailyBudget,
		Targeting:        spec.Targeting,
	})
	if err != nil {
		return nil, fmt.Errorf("Campaign created (%s) but failed to create ad set: %w", campaignID, err)
	}

	return &model.CampaignResult{CampaignID: campaignID, AdSetID: adSetID}, nil
}

func (r *CPASRepository) GetBusinessInfo(ctx context.Context, businessID string) (*model.Business, error) {
	var b model.Business
	err := r.Client.DoInto(ctx, graph.Request{
		Endpoint: businessID,
		Params:   map[string]any{"fields": businessFields},
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ValidateAccessToken resolves the user behind the token in use
func (r *CPASRepository) ValidateAccessToken(ctx context.Context) (*model.User, error) {
	var u model.User
	err := r.Client.DoInto(ctx, graph.Request{
		Endpoint: "me",
		Params:   map[string]any{"fields": "id,name"},
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ActPrefixed makes sure an ad account id carries the act_ prefix
func ActPrefixed(adAccountID string) string {
	if strings.HasPrefix(adAccountID, "act_") {
		return adAccountID
	}
	return "act_" + adAccountID
}

// list reads the data array of a single page; a missing data key is an empty list
func list[T any](ctx context.Context, c *graph.Client, endpoint string, params map[string]any) ([]T, error) {
	var page graph.Page[T]
	if err := c.DoInto(ctx, graph.Request{Endpoint: endpoint, Params: params}, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		return []T{}, nil
	}
	return page.Data, nil
}
