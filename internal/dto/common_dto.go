package dto

// ErrorResponse is the body of every non-2xx response. Code is one of
// not_found, invalid_state, conflict, validation_error, unauthorized,
// forbidden or internal.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
