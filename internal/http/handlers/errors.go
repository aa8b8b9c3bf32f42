// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error body carries one of these codes next to the human-readable
// "error" message, so clients can branch on the code without parsing text:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "error": "Employee with this email already exists"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
)

// User-facing messages shared with the router's fallbacks.
const (
	MsgEndpointNotFound = "Endpoint not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternal         = "Internal server error"
	MsgInvalidJSON      = "Request body must be valid JSON"
	MsgBodyTooLarge     = "Request body too large"
	MsgEmailTaken       = "Employee with this email already exists"
	MsgEmployeeNotFound = "Employee not found"
)
