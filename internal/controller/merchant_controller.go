// internal/controller/merchant_controller.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/cpas-demos/internal/config"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/service"
)

type MerchantController struct {
	MerchantService *service.MerchantService
	Config          *config.Config
	Log             logrus.FieldLogger
}

func (c *MerchantController) Routes(r chi.Router) {
	r.Post("/validate", c.ValidateSetup)
	r.Get("/dashboard", c.Dashboard)
	r.Get("/requests", c.Requests)
	r.Post("/requests/bulk", c.BulkRequests)
	r.Post("/requests/{id}/approve", c.ApproveRequest)
	r.Post("/requests/{id}/reject", c.RejectRequest)
	r.Get("/partners", c.Partners)
	r.Get("/catalogs", c.Catalogs)
	r.Post("/catalogs/{id}/share", c.ShareCatalog)
	r.Post("/brand-onboarding", c.BrandOnboarding)
}

func (c *MerchantController) merchantBMID(r *http.Request) (string, error) {
	id := orDefault(r, "merchant_business_id", c.Config.MerchantBusinessID)
	return id, requireID("merchant_business_id", id)
}

func (c *MerchantController) ValidateSetup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MerchantBusinessID string `json:"merchant_business_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	if body.MerchantBusinessID == "" {
		body.MerchantBusinessID = c.Config.MerchantBusinessID
	}

	result, err := c.MerchantService.ValidateMerchantSetup(graph.RequestContext(r), body.MerchantBusinessID)
	resp := map[string]any{"valid": err == nil, "validation": result}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *MerchantController) Dashboard(w http.ResponseWriter, r *http.Request) {
	merchantBMID, err := c.merchantBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, c.MerchantService.GetDashboardStats(graph.RequestContext(r), merchantBMID))
}

// Requests lists pending requests; ?status=all lists every request
func (c *MerchantController) Requests(w http.ResponseWriter, r *http.Request) {
	merchantBMID, err := c.merchantBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	var requests []model.CollabRequest
	if r.URL.Query().Get("status") == "all" {
		requests, err = c.MerchantService.GetAllRequests(graph.RequestContext(r), merchantBMID)
	} else {
		requests, err = c.MerchantService.GetPendingRequests(graph.RequestContext(r), merchantBMID)
	}
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": requests})
}

func (c *MerchantController) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.MerchantService.ApproveRequest(graph.RequestContext(r), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.BulkDetail{ID: id, Status: "approved"})
}

func (c *MerchantController) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.MerchantService.RejectRequest(graph.RequestContext(r), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, model.BulkDetail{ID: id, Status: "rejected"})
}

func (c *MerchantController) BulkRequests(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action     string   `json:"action" validate:"required,oneof=approve reject"`
		RequestIDs []string `json:"request_ids" validate:"required,min=1,dive,required"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	var result model.BulkResult
	if body.Action == "approve" {
		result = c.MerchantService.BulkApprove(graph.RequestContext(r), body.RequestIDs)
	} else {
		result = c.MerchantService.BulkReject(graph.RequestContext(r), body.RequestIDs)
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *MerchantController) Partners(w http.ResponseWriter, r *http.Request) {
	merchantBMID, err := c.merchantBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	partners, err := c.MerchantService.GetActivePartners(graph.RequestContext(r), merchantBMID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": partners})
}

func (c *MerchantController) Catalogs(w http.ResponseWriter, r *http.Request) {
	merchantBMID, err := c.merchantBMID(r)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}

	catalogs, err := c.MerchantService.GetCatalogSegments(graph.RequestContext(r), merchantBMID)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": catalogs})
}

func (c *MerchantController) ShareCatalog(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BrandBusinessID string `json:"brand_business_id" validate:"required"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	catalogID := chi.URLParam(r, "id")
	if err := c.MerchantService.ShareCatalogWithBrand(graph.RequestContext(r), catalogID, body.BrandBusinessID); err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"catalog_id": catalogID, "brand_business_id": body.BrandBusinessID})
}

// BrandOnboarding advances the brand wizard by one action. The brand's own
// token travels in the state, not in the Authorization header.
func (c *MerchantController) BrandOnboarding(w http.ResponseWriter, r *http.Request) {
	var body struct {
		State model.BrandOnboardingState `json:"state"`
		Input model.BrandOnboardingInput `json:"input"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, c.Log, err)
		return
	}

	merchantBMID := orDefault(r, "merchant_business_id", c.Config.MerchantBusinessID)
	result, err := c.MerchantService.AdvanceBrandOnboarding(r.Context(), merchantBMID, c.Config.MerchantName, body.State, body.Input)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
