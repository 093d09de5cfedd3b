package dto

import (
	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
)

// ErrorResponse is a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a standardized success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse returns the user together with issued tokens
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
}

// JobListResponse is a paginated job listing
type JobListResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// ContractListResponse is a paginated contract listing
type ContractListResponse struct {
	Contracts []models.Contract `json:"contracts"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// RecommendationResponse is a scored job recommendation
type RecommendationResponse struct {
	Job   models.Job `json:"job"`
	Score int        `json:"match_score"`
}

// NewRecommendationResponses converts engine matches to API shape
func NewRecommendationResponses(matches []engine.JobMatch) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, RecommendationResponse{Job: m.Job, Score: m.Score})
	}
	return out
}

// WorkerListResponse lists workers matching a skill filter
type WorkerListResponse struct {
	Workers []*models.User `json:"workers"`
}
