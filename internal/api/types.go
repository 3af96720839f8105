package api

// ErrorResponse is the JSON body for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is the response for GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CachedConfigs int    `json:"cached_configs"`
}

// CacheClearResponse reports how many cached entries were removed.
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

// RateLimitResponse reports the last observed API quota.
type RateLimitResponse struct {
	Resource   string `json:"resource"`
	Remaining  int    `json:"remaining"`
	Ceiling    int    `json:"ceiling"`
	ResetAt    int64  `json:"reset_at"`
	ObservedAt int64  `json:"observed_at"`
}
