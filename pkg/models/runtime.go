package models

// RuntimeInfo describes the backend runtime settings that the frontend may need.
// It is intentionally small and stable.
type RuntimeInfo struct {
	HTTPBaseURL string `json:"http_base_url"`
	WSBaseURL   string `json:"ws_base_url"`
	Port        int    `json:"port"`
	Version     string `json:"version"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// MessageResponse acknowledges mutations that return no entity.
type MessageResponse struct {
	Message string `json:"message"`
}
