package presentation

import (
	"github.com/zjrosen/geosift/internal/searchapi"
)

// ColumnsDTO lists the service's display and searchable columns.
type ColumnsDTO struct {
	Columns       []string `json:"columns"`
	SearchColumns []string `json:"search_columns"`
}

// SearchResultDTO is a search response prepared for output.
type SearchResultDTO struct {
	Query       string           `json:"query"`
	Count       int              `json:"count"`
	TimeTakenMs float64          `json:"time_taken_ms"`
	Results     []map[string]any `json:"results"`
}

// FromResponse converts a search response. A nil response yields an empty result.
func FromResponse(q searchapi.Query, resp *searchapi.Response) SearchResultDTO {
	dto := SearchResultDTO{
		Query:   q.Encode(),
		Results: []map[string]any{},
	}
	if resp == nil {
		return dto
	}
	if resp.Results != nil {
		dto.Results = resp.Results
	}
	dto.Count = len(dto.Results)
	dto.TimeTakenMs = resp.TimeTakenMs
	return dto
}
