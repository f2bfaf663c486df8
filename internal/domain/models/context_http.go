package models

// Requests for context HTTP endpoints. Defined in domain for consistency and reuse.

type ContextRequest struct {
	Tier string `query:"tier" json:"tier" default:"starter" validate:"oneof=starter standard premium"`
	Demo bool   `query:"demo" json:"demo"`
}

type SearchContextRequest struct {
	Query string `query:"q" json:"q" validate:"required,min=2,max=200"`
	Tier  string `query:"tier" json:"tier" default:"starter" validate:"oneof=starter standard premium"`
	Demo  bool   `query:"demo" json:"demo"`
}

type ManualContextRequest struct {
	Text  string `json:"text" validate:"required,min=10"`
	Admin string `json:"admin" validate:"required"`
}

type InvalidateCacheRequest struct {
	Pattern   string `json:"pattern"`
	Broadcast bool   `json:"broadcast"`
}
