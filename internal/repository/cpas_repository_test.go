package repository_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/repository"
)

type recordedCall struct {
	Method string
	Path   string
	Query  url.Values
}

// fakeGraph answers each path with a canned body; unknown paths get a 400
type fakeGraph struct {
	t      *testing.T
	routes map[string]string
	errors map[string]string
	calls  []recordedCall
}

func newFakeGraph(t *testing.T) *fakeGraph {
	return &fakeGraph{t: t, routes: map[string]string{}, errors: map[string]string{}}
}

func (f *fakeGraph) client() *graph.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/v22.0/")
		path = strings.TrimPrefix(path, "/v23.0/")
		f.calls = append(f.calls, recordedCall{Method: r.Method, Path: path, Query: r.URL.Query()})

		if body, ok := f.errors[path]; ok {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, body)
			return
		}
		if body, ok := f.routes[path]; ok {
			io.WriteString(w, body)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"unexpected path `+path+`","code":100}}`)
	}))
	f.t.Cleanup(srv.Close)
	return graph.NewClient(config.GraphConfig{BaseURL: srv.URL, Version: "v22.0"}, "tok")
}

func (f *fakeGraph) last() recordedCall {
	require.NotEmpty(f.t, f.calls)
	return f.calls[len(f.calls)-1]
}

func TestCreateCampaignAddsActPrefix(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["act_123/campaigns"] = `{"id":"c1"}`
	repo := &repository.CPASRepository{Client: fg.client()}

	id, err := repo.CreateCampaign(context.Background(), "123", "Diwali")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	call := fg.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "OUTCOME_SALES", call.Query.Get("objective"))
	assert.Equal(t, "PAUSED", call.Query.Get("status"))
	assert.Equal(t, "[]", call.Query.Get("special_ad_categories"))

	_, err = repo.CreateCampaign(context.Background(), "act_123", "Diwali")
	require.NoError(t, err)
	assert.Equal(t, "act_123/campaigns", fg.last().Path)
}

func TestCreateAdSetDefaultTargeting(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["act_9/adsets"] = `{"id":"as1"}`
	repo := &repository.CPASRepository{Client: fg.client()}

	id, err := repo.CreateAdSet(context.Background(), repository.AdSetParams{
		AdAccountID:      "9",
		CampaignID:       "c1",
		Name:             "Diwali - Ad Set",
		CatalogSegmentID: "cat1",
		DailyBudget:      100000,
	})
	require.NoError(t, err)
	assert.Equal(t, "as1", id)

	q := fg.last().Query
	assert.JSONEq(t, `{"geo_locations":{"countries":["IN"]}}`, q.Get("targeting"))
	assert.JSONEq(t, `{"product_catalog_id":"cat1"}`, q.Get("promoted_object"))
	assert.Equal(t, "IMPRESSIONS", q.Get("billing_event"))
	assert.Equal(t, "OFFSITE_CONVERSIONS", q.Get("optimization_goal"))
	assert.Equal(t, "100000", q.Get("daily_budget"))
}

func TestCreateCampaignWithAdSetFailures(t *testing.T) {
	t.Run("campaign fails", func(t *testing.T) {
		fg := newFakeGraph(t)
		fg.errors["act_9/campaigns"] = `{"error":{"message":"No permission","code":10}}`
		repo := &repository.CPASRepository{Client: fg.client()}

		_, err := repo.CreateCampaignWithAdSet(context.Background(), repository.CampaignSpec{AdAccountID: "9", CampaignName: "x"})
		require.Error(t, err)
		assert.Equal(t, "Failed to create campaign: API Error 10: No permission", err.Error())
	})

	t.Run("ad set fails", func(t *testing.T) {
		fg := newFakeGraph(t)
		fg.routes["act_9/campaigns"] = `{"id":"c77"}`
		fg.errors["act_9/adsets"] = `{"error":{"message":"Bad budget","code":100}}`
		repo := &repository.CPASRepository{Client: fg.client()}

		_, err := repo.CreateCampaignWithAdSet(context.Background(), repository.CampaignSpec{AdAccountID: "9", CampaignName: "x"})
		require.Error(t, err)
		assert.Equal(t, "Campaign created (c77) but failed to create ad set: API Error 100: Bad budget", err.Error())
	})

	t.Run("both succeed", func(t *testing.T) {
		fg := newFakeGraph(t)
		fg.routes["act_9/campaigns"] = `{"id":"c77"}`
		fg.routes["act_9/adsets"] = `{"id":"as9"}`
		repo := &repository.CPASRepository{Client: fg.client()}

		res, err := repo.CreateCampaignWithAdSet(context.Background(), repository.CampaignSpec{
			AdAccountID: "9", CampaignName: "x", AdSetName: "x - Ad Set",
			Targeting: repository.CountryTargeting([]string{"IN", "AE"}),
		})
		require.NoError(t, err)
		assert.Equal(t, "c77", res.CampaignID)
		assert.Equal(t, "as9", res.AdSetID)
		assert.JSONEq(t, `{"geo_locations":{"countries":["IN","AE"]}}`, fg.last().Query.Get("targeting"))
	})
}

func TestSendCollaborationRequest(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["brand1/collaborative_ads_collaboration_requests"] = `{"id":"req1"}`
	repo := &repository.CPASRepository{Client: fg.client()}

	id, err := repo.SendCollaborationRequest(context.Background(), "brand1", "m1", "a@b.c", "Asha", "AGENCY")
	require.NoError(t, err)
	assert.Equal(t, "req1", id)

	q := fg.last().Query
	assert.Equal(t, "m1", q.Get("brands"))
	assert.Equal(t, "AGENCY", q.Get("requester_agency_or_brand"))
}

func TestMissingIDInCreateResponses(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["brand1/collaborative_ads_collaboration_requests"] = `{}`
	fg.routes["brand1/adaccount"] = `{"success":true}`
	repo := &repository.CPASRepository{Client: fg.client()}

	_, err := repo.SendCollaborationRequest(context.Background(), "brand1", "m1", "", "", "BRAND")
	assert.EqualError(t, err, "Request ID not found in response")

	_, err = repo.CreateAdAccount(context.Background(), "brand1", "CPAS - Zepto", 50, "INR")
	assert.EqualError(t, err, "Ad account ID not found in response")

	q := fg.last().Query
	assert.Equal(t, "brand1", q.Get("end_advertiser"))
	assert.Equal(t, "brand1", q.Get("media_agency"))
	assert.Equal(t, "NONE", q.Get("partner"))
	assert.Equal(t, "50", q.Get("timezone_id"))
}

func TestGetCollaborationRequests(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["m1/collaborative_ads_collaboration_requests"] = `{"data":[
		{"id":"r1","request_status":"PENDING","sender_business":{"id":"b1","name":"Brand One"}},
		{"id":"r2","request_status":"PENDING","sender_business":{"id":"b2","name":"Brand Two"}}
	]}`
	repo := &repository.CPASRepository{Client: fg.client()}

	reqs, err := repo.GetCollaborationRequests(context.Background(), "m1", "PENDING")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Brand Two", reqs[1].SenderBusiness.Name)

	q := fg.last().Query
	assert.Equal(t, "PENDING", q.Get("status"))
	assert.Equal(t, "50", q.Get("limit"))
}

func TestGetSuggestedPartners(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["b1/collaborative_ads_suggested_partners"] = `{"data":[{"id":"m1","name":"Blinkit"},{"id":"m2","name":"Zepto"}]}`
	repo := &repository.CPASRepository{Client: fg.client()}

	partners, err := repo.GetSuggestedPartners(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, partners, 2)
	assert.Equal(t, "Zepto", partners[1].Name)

	call := fg.last()
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "50", call.Query.Get("limit"))
}

func TestListWithoutDataIsEmpty(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["b1/client_product_catalogs"] = `{}`
	repo := &repository.CPASRepository{Client: fg.client()}

	cats, err := repo.GetSharedCatalogSegments(context.Background(), "b1")
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.NotNil(t, cats)
}

func TestAcceptAndRejectRequest(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["r1"] = `{"success":true}`
	repo := &repository.CPASRepository{Client: fg.client()}

	require.NoError(t, repo.AcceptCollaborationRequest(context.Background(), "r1"))
	assert.Equal(t, "approve", fg.last().Query.Get("request_status"))

	require.NoError(t, repo.RejectCollaborationRequest(context.Background(), "r1"))
	assert.Equal(t, "reject", fg.last().Query.Get("request_status"))
}

func TestShareCatalogSegment(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["cat1/agencies"] = `{"success":true}`
	repo := &repository.CPASRepository{Client: fg.client()}

	require.NoError(t, repo.ShareCatalogSegment(context.Background(), "cat1", "brand1"))

	var tasks []string
	require.NoError(t, json.Unmarshal([]byte(fg.last().Query.Get("permitted_tasks")), &tasks))
	assert.Equal(t, []string{"ADVERTISE"}, tasks)
	assert.Equal(t, "brand1", fg.last().Query.Get("business"))
}

func TestValidateAccessToken(t *testing.T) {
	fg := newFakeGraph(t)
	fg.routes["me"] = `{"id":"u1","name":"Asha"}`
	fg.routes["b1"] = `{"id":"b1","name":"Brand","verification_status":"verified","primary_page":{"id":"p1","name":"Brand Page"}}`
	repo := &repository.CPASRepository{Client: fg.client()}

	u, err := repo.ValidateAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)

	b, err := repo.GetBusinessInfo(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "verified", b.VerificationStatus)
	require.NotNil(t, b.PrimaryPage)
	assert.Equal(t, "p1", b.PrimaryPage.ID)
}
