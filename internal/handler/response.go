package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
)

// DataResponse wraps a single-resource response
type DataResponse struct {
	Data interface{} `json:"data"`
}

// CollectionResponse wraps a collection response with pagination
type CollectionResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination describes an offset-paginated collection
type Pagination struct {
	Skip    int  `json:"skip"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

const defaultPageLimit = 20

// parsePagination reads skip and limit query parameters. Absent parameters
// take defaults; present ones must be integers within bounds, and violations
// come back as field errors for a 422 response.
func parsePagination(r *http.Request) (skip, limit int, errs []model.FieldError) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "limit", Message: "limit must be an integer"})
		} else {
			limit = n
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "skip", Message: "skip must be an integer"})
		} else {
			skip = n
		}
	}
	if len(errs) == 0 {
		errs = model.ValidatePagination(skip, limit)
	}
	return skip, limit, errs
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful single-resource response
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, DataResponse{Data: data})
}

// WriteCollection writes a paginated collection response
func WriteCollection(w http.ResponseWriter, skip, limit, total int, data interface{}) {
	WriteJSON(w, http.StatusOK, CollectionResponse{
		Data: data,
		Pagination: Pagination{
			Skip:    skip,
			Limit:   limit,
			Total:   total,
			HasMore: skip+limit < total,
		},
	})
}

// WriteError renders the uniform error envelope with the request's
// correlation ID stamped on.
func WriteError(w http.ResponseWriter, r *http.Request, e *model.ErrorResponse) {
	middleware.WriteError(w, r, e)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
