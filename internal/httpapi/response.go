package httpapi

import "carsales/internal/domain"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// MatchResponse describes a matched car. Score is omitted for cars found by name.
type MatchResponse struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Score         *float64 `json:"score,omitempty"`
	BrochureLink  string   `json:"brochure_link,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	BrochureURL   string   `json:"brochure_url,omitempty"`
	BrochurePages int      `json:"brochure_pages,omitempty"`
}

// AskResponse is the body returned by POST /api/v1/ask.
type AskResponse struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Strategy domain.Strategy `json:"strategy"`
	Cached   bool            `json:"cached"`
	Matches  []MatchResponse `json:"matches"`
}

// CarsResponse lists the catalog.
type CarsResponse struct {
	Cars []domain.Car `json:"cars"`
}
