package views

// APIResponse represents the structure of a standard API response.
type APIResponse struct {
	Data any `json:"data"`
}
