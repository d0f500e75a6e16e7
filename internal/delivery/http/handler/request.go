package handler

import (
	"encoding/json"
	"net/http"

	"facility-booking/pkg/response"
	"facility-booking/pkg/validator"
)

// decodeRequest reads a JSON body into req and validates it. On failure it
// has already written the 400 response.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if err := v.Validate(req); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}
