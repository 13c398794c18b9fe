// internal/handler/booster_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
	"github.com/unclebandit/cpas-demos/internal/graph"
	"github.com/unclebandit/cpas-demos/internal/model"
	"github.com/unclebandit/cpas-demos/internal/service"
)

var validate = validator.New()

// RunReader reads back booster runs from the ledger
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRowResults(ctx context.Context, runID string) ([]model.RowResultEvent, error)
}

// BoosterHandler exposes the partnership ads booster over HTTP.
// Runs is optional; without a ledger the run lookup answers 404.
type BoosterHandler struct {
	Fetch   *service.FetchService
	Booster *service.BoosterService
	Runs    RunReader
	Log     logrus.FieldLogger
}

type createAdsPayload struct {
	model.CreateAdsRequest
	Columns []string            `json:"columns,omitempty"`
	Rows    []map[string]string `json:"rows" validate:"required,min=1"`
}

func (h *BoosterHandler) Routes(r chi.Router) {
	r.Post("/fetch", h.FetchMediasHandler)
	r.Post("/create", h.CreateAdsHandler)
	r.Get("/runs/{id}", h.GetRunHandler)
}

// FetchMediasHandler returns the advertisable medias of an Instagram account
func (h *BoosterHandler) FetchMediasHandler(w http.ResponseWriter, r *http.Request) {
	var req model.FetchMediasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, appErrors.NewValidationError("body", "invalid request body: "+err.Error()))
		return
	}
	if err := validate.Struct(req); err != nil {
		h.fail(w, appErrors.NewValidationError("body", err.Error()))
		return
	}

	records, err := h.Fetch.FetchAdvertisableMedias(graph.RequestContext(r), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  records,
		"count": len(records),
	})
}

// CreateAdsHandler runs the create pipeline over JSON rows. Row failures are
// part of a 200 response; only batch-level problems are errors.
func (h *BoosterHandler) CreateAdsHandler(w http.ResponseWriter, r *http.Request) {
	var payload createAdsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.fail(w, appErrors.NewValidationError("body", "invalid request body: "+err.Error()))
		return
	}
	if err := validate.Struct(payload); err != nil {
		h.fail(w, appErrors.NewValidationError("body", err.Error()))
		return
	}

	rows := make([]model.InputRow, 0, len(payload.Rows))
	for _, values := range payload.Rows {
		rows = append(rows, model.NewInputRow(payload.Columns, values))
	}

	result, err := h.Booster.CreateAds(graph.RequestContext(r), payload.CreateAdsRequest, rows, "http")
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *BoosterHandler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Runs == nil {
		h.fail(w, appErrors.NewRunNotFound(id))
		return
	}

	run, err := h.Runs.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.Runs.ListRowResults(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run":  run,
		"rows": rows,
	})
}

func (h *BoosterHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		ve *appErrors.ValidationError
		rn *appErrors.ErrRunNotFound
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &rn):
		status = http.StatusNotFound
	case appErrors.IsGraphError(err):
		status = http.StatusBadGateway
	default:
		h.Log.WithError(err).Error("booster request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
