package auth

// Known OAuth scopes used by the ingestion API.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
)
