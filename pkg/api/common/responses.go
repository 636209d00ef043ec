package common

// ErrorResponse is the standard error body returned by the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`    // Machine-readable error code
	Details map[string]interface{} `json:"details,omitempty"` // Additional error context
}
