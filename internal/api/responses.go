package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// DeniedResponse is returned when an entitlement check fails.
type DeniedResponse struct {
	Error  string `json:"error" example:"you have reached your guest pass limit for this period"`
	Reason string `json:"reason" example:"limit_reached"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
