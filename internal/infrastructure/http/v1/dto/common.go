// Package dto defines HTTP request/response shapes.
//
// Field casing follows the storefront's existing API contract: request
// bodies use camelCase document references (rmaId, orderId), line items
// use snake_case.
package dto

// OKResponse acknowledges a state transition.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is produced by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
