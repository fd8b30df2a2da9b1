// Package helpers provides test utility functions for the Lattice API.
//
// The helpers package contains request builders, response assertions,
// and pointer helpers shared by the end-to-end test suite.
//
// # Request Building
//
// Build requests fluently:
//
//	req := helpers.NewRequest(t, "POST", "/api/v1/posts").
//	    WithBearer(token).
//	    WithBody(map[string]string{"title": "Hello"}).
//	    Build()
//
// # Response Assertions
//
// Check statuses and the uniform error envelope:
//
//	helpers.AssertStatus(t, rec, http.StatusOK)
//	helpers.AssertError(t, rec, http.StatusNotFound, "RESOURCE_NOT_FOUND")
//	helpers.AssertValidationError(t, rec, "email")
//
// # Pointer Helpers
//
// Create pointers to literal values:
//
//	name := helpers.StringPtr("test")
//	flag := helpers.BoolPtr(true)
package helpers
