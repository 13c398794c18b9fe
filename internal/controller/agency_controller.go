// internal/controller/agency_controller.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/service"
)

type AgencyController struct {
	AgencyService *service.AgencyService
	Config        *config.Config
	Log           logrus.FieldLogger
}

func (c *AgencyController) Routes(r chi.Router) {
	r.Post("/validate", c.ValidateSetup)
	r.Get("/merchants", c.ListMerchants)
	r.Post("/partnerships", c.InitiatePartnership)
	r.Get("/partnerships/{merchant}", c.PartnershipStatus)
	r.Get("/requests", c.SentRequests)
	r.Get("/partners/suggested", c.SuggestedPartners)
	r.Get("/catalogs", c.CatalogSegments)
	r.Post("/ad-accounts", c.CreateAdAccount)
	r.Get("/ad-accounts", c.AdAccounts)
	r.Post("/campaigns", c.CreateCampaign)
	r.Get("/onboarding/{merchant}", c.OnboardingStatus)
}

func (c *AgencyController) brandBMID(r *http.Request) (string, error) {
	id := orDefault(r, "brand_business_id", c.Config.DefaultBrandBusinessID)
	return id, requireID("brand_business_id", id)
}

// ValidateSetup always answers 200; the body says how far validation got
func (c *AgencyController) ValidateSetup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgencyBusinessID string `json:"agency_business_id"`
		BrandBusinessID  string `json:"brand_business_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	if body.AgencyBusinessID == "" {
		body.AgencyBusinessID = c.Config.AgencyBusinessID
	}
	if body.BrandBusinessID == "" {
		body.BrandBusinessID = c.Config.DefaultBrandBusinessID
	}

	result, err := c.AgencyService.ValidateSetup(graph.RequestContext(r), body.AgencyBusinessID, body.BrandBusinessID)
	resp := map[string]any{"valid": err == nil, "validation": result}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *AgencyController) ListMerchants(w http.ResponseWriter, r *http.Request) {
	merchants := c.AgencyService.ListMerchants()
	if r.URL.Query().Get("active") == "true" {
		merchants = c.AgencyService.Directory.Active()
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": merchants})
}

func (c *AgencyController) InitiatePartnership(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BrandBusinessID string `json:"brand_business_id"`
		Merchant        string `json:"merchant" validate:"required"`
		ContactEmail    string `json:"contact_email" validate:"omitempty,email"`
		ContactName     string `json:"contact_name"`
		IsAgency        *bool  `json:"is_agency"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	if body.BrandBusinessID == "" {
		body.BrandBusinessID = c.Config.DefaultBrandBusinessID
	}
	if body.ContactEmail == "" {
		body.ContactEmail = c.Config.DefaultContactEmail
	}
	if body.ContactName == "" {
		body.ContactName = c.Config.DefaultContactName
	}
	isAgency := body.IsAgency == nil || *body.IsAgency

	requestID, err := c.AgencyService.InitiatePartnership(graph.RequestContext(r),
		body.BrandBusinessID, body.Merchant, body.ContactEmail, body.ContactName, isAgency)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"request_id": requestID})
}

func (c *AgencyController) PartnershipStatus(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	status, err := c.AgencyService.GetPartnershipStatus(graph.RequestContext(r), brandBMID, chi.URLParam(r, "merchant"))
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (c *AgencyController) SentRequests(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	requests, err := c.AgencyService.GetSentRequests(graph.RequestContext(r), brandBMID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": requests})
}

func (c *AgencyController) SuggestedPartners(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	partners, err := c.AgencyService.GetSuggestedPartners(graph.RequestContext(r), brandBMID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": partners})
}

func (c *AgencyController) CatalogSegments(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	catalogs, err := c.AgencyService.GetAvailableCatalogSegments(graph.RequestContext(r), brandBMID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": catalogs})
}

func (c *AgencyController) CreateAdAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BrandBusinessID string `json:"brand_business_id"`
		MerchantName    string `json:"merchant_name" validate:"required"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	if body.BrandBusinessID == "" {
		body.BrandBusinessID = c.Config.DefaultBrandBusinessID
	}
	if err := requireID("brand_business_id", body.BrandBusinessID); err != nil {
		writeError(w, c.Log, err)
		return
	}

	id, err := c.AgencyService.SetupCollabAdAccount(graph.RequestContext(r), body.BrandBusinessID, body.MerchantName)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ad_account_id": id})
}

func (c *AgencyController) AdAccounts(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	accounts, err := c.AgencyService.GetBrandAdAccounts(graph.RequestContext(r), brandBMID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": accounts})
}

func (c *AgencyController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CampaignInput
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	result, err := c.AgencyService.CreateCPASCampaign(graph.RequestContext(r), body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (c *AgencyController) OnboardingStatus(w http.ResponseWriter, r *http.Request) {
	brandBMID, err := c.brandBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	status, err := c.AgencyService.GetFullOnboardingStatus(graph.RequestContext(r), brandBMID, chi.URLParam(r, "merchant"))
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
