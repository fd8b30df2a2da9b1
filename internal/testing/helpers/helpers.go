package helpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// ============================================================================
// Request Building
// ============================================================================

// RequestBuilder builds HTTP requests for handler tests
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	headers map[string]string
}

// NewRequest starts building a request
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: map[string]string{},
	}
}

// WithBody sets a JSON body
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader sets a header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithBearer sets the Authorization header with a bearer token
func (rb *RequestBuilder) WithBearer(token string) *RequestBuilder {
	rb.headers["Authorization"] = "Bearer " + token
	return rb
}

// WithAPIKey sets the X-API-Key header
func (rb *RequestBuilder) WithAPIKey(rawKey string) *RequestBuilder {
	rb.headers["X-API-Key"] = rawKey
	return rb
}

// Build constructs the http.Request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var reader *bytes.Reader
	if rb.body != nil {
		encoded, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(rb.method, rb.path, reader)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// ============================================================================
// Response Assertions
// ============================================================================

// AssertStatus fails the test if the response status does not match
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, rec.Code, rec.Body.String())
	}
}

// ErrorEnvelope mirrors the uniform error response shape
type ErrorEnvelope struct {
	Message       string `json:"message"`
	ErrorCode     string `json:"error_code"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     string `json:"timestamp"`
	Details       []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// AssertError checks the status and error code of an error response and
// verifies the envelope carries a correlation ID and timestamp.
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int, expectedCode string) ErrorEnvelope {
	t.Helper()

	AssertStatus(t, rec, expectedStatus)

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v: %s", err, rec.Body.String())
	}
	if envelope.ErrorCode != expectedCode {
		t.Fatalf("expected error code %q, got %q: %s", expectedCode, envelope.ErrorCode, rec.Body.String())
	}
	if envelope.Message == "" {
		t.Fatal("error envelope missing message")
	}
	if envelope.CorrelationID == "" {
		t.Fatal("error envelope missing correlation_id")
	}
	if _, err := time.Parse(time.RFC3339, envelope.Timestamp); err != nil {
		t.Fatalf("error envelope timestamp not RFC 3339: %q", envelope.Timestamp)
	}
	return envelope
}

// AssertValidationError checks for a 422 naming the given field in details
func AssertValidationError(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()

	envelope := AssertError(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	for _, detail := range envelope.Details {
		if detail.Field == field {
			return
		}
	}
	t.Fatalf("expected a validation detail for field %q, got %+v", field, envelope.Details)
}

// DecodeResponse unmarshals the response body into v
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v: %s", err, rec.Body.String())
	}
}

// GetData decodes the response and returns the data object
func GetData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	DecodeResponse(t, rec, &envelope)
	if envelope.Data == nil {
		t.Fatalf("response has no data object: %s", rec.Body.String())
	}
	return envelope.Data
}

// GetCollection decodes a list response and returns items plus pagination
func GetCollection(t *testing.T, rec *httptest.ResponseRecorder) ([]map[string]interface{}, map[string]interface{}) {
	t.Helper()

	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	DecodeResponse(t, rec, &envelope)
	return envelope.Data, envelope.Pagination
}

// ============================================================================
// Pointer Helpers
// ============================================================================

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
