// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
)

var validate = validator.New()

// decode reads a JSON body into dst and validates it
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.NewValidationError("body", "invalid request body: "+err.Error())
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return appErrors.NewValidationError(verrs[0].Field(), verrs[0].Error())
		}
		return appErrors.NewValidationError("body", err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Graph failures are the
// upstream's fault, so they are 502.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	var (
		ve *appErrors.ValidationError
		nf *appErrors.ErrMerchantNotFound
		rn *appErrors.ErrRunNotFound
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &nf), errors.As(err, &rn):
		status = http.StatusNotFound
	case appErrors.IsGraphError(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// orDefault returns the query parameter, or fallback when it is absent
func orDefault(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func requireID(field, value string) error {
	if value == "" {
		return appErrors.NewValidationError(field, field+" is required")
	}
	return nil
}
