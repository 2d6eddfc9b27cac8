package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information. GatewayCode and GatewayMessage carry
// the first message returned by the payment gateway when the failure came from it.
type ErrorDetail struct {
	Display        string         `json:"message"`
	Kind           string         `json:"kind,omitempty"`
	GatewayCode    string         `json:"gateway_code,omitempty"`
	GatewayMessage string         `json:"gateway_message,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}
