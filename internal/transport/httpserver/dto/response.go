package dto

import (
	"time"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/internal/domain"
)

// MaterialResponse represents a single material in the listing response.
type MaterialResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Price          int    `json:"price"`
	FormattedPrice string `json:"formatted_price"`

	Subjects     []string `json:"subjects"`
	Cycles       []string `json:"cycles"`
	Dialect      string   `json:"dialect,omitempty"`
	MIIntegrated bool     `json:"mi_integrated"`

	FileURL    string `json:"file_url"`
	PreviewURL string `json:"preview_url,omitempty"`

	Seller SellerResponse `json:"seller"`

	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`

	Competencies []BadgeResponse `json:"competencies,omitempty"`
	Transversals []BadgeResponse `json:"transversals,omitempty"`
	BneThemes    []BadgeResponse `json:"bne_themes,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SellerResponse is the embedded seller summary.
type SellerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Verified    bool   `json:"verified"`
}

// BadgeResponse is a curriculum tag rendered on material cards.
type BadgeResponse struct {
	Code  string `json:"code"`
	Title string `json:"title,omitempty"`
}

// FromDomainMaterial converts a domain.Material to its response shape.
func FromDomainMaterial(m *domain.Material) MaterialResponse {
	return MaterialResponse{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		Price:          m.Price,
		FormattedPrice: m.FormattedPrice(),
		Subjects:       m.Subjects,
		Cycles:         m.Cycles,
		Dialect:        string(m.Dialect),
		MIIntegrated:   m.MIIntegrated,
		FileURL:        m.FileURL,
		PreviewURL:     m.PreviewURL,
		Seller: SellerResponse{
			ID:          m.Seller.ID,
			DisplayName: m.Seller.DisplayName,
			Verified:    m.Seller.Verified,
		},
		AverageRating: m.AverageRating(),
		ReviewCount:   m.ReviewCount(),
		Competencies:  badges(m.Competencies),
		Transversals:  badges(m.Transversals),
		BneThemes:     badges(m.BneThemes),
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     m.UpdatedAt.Format(time.RFC3339),
	}
}

func badges(in []domain.Badge) []BadgeResponse {
	if len(in) == 0 {
		return nil
	}
	out := make([]BadgeResponse, len(in))
	for i, b := range in {
		out[i] = BadgeResponse{Code: b.Code, Title: b.Title}
	}

	return out
}

// ListMaterialsResponse is the paginated listing envelope.
type ListMaterialsResponse struct {
	Materials  []MaterialResponse `json:"materials"`
	Pagination PaginationMeta     `json:"pagination"`
}

// PaginationMeta holds pagination metadata.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// FromSearchResult converts a domain.SearchResult to the response envelope.
// Materials is always a JSON array, never null: empty short-circuit results
// serialize as `"materials": []`.
func FromSearchResult(result *domain.SearchResult) ListMaterialsResponse {
	materials := make([]MaterialResponse, len(result.Materials))
	for i, m := range result.Materials {
		materials[i] = FromDomainMaterial(m)
	}

	return ListMaterialsResponse{
		Materials: materials,
		Pagination: PaginationMeta{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	}
}

// SyncResultResponse represents the outcome of one publisher sync.
type SyncResultResponse struct {
	Publisher string `json:"publisher"`
	Count     int    `json:"count"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

// SyncResponse represents the response for a sync-all operation.
type SyncResponse struct {
	Results []SyncResultResponse `json:"results"`
	Summary SyncSummary          `json:"summary"`
}

// SyncSummary aggregates a sync-all run.
type SyncSummary struct {
	TotalSynced    int `json:"total_synced"`
	PublishersOK   int `json:"publishers_ok"`
	PublishersFail int `json:"publishers_fail"`
}

// FromSyncResults converts service.SyncResult slice to SyncResponse.
func FromSyncResults(results []service.SyncResult) SyncResponse {
	resp := SyncResponse{
		Results: make([]SyncResultResponse, len(results)),
	}

	for i, r := range results {
		errMsg := ""
		if r.Error != nil {
			errMsg = r.Error.Error()
			resp.Summary.PublishersFail++
		} else {
			resp.Summary.TotalSynced += r.Count
			resp.Summary.PublishersOK++
		}

		resp.Results[i] = SyncResultResponse{
			Publisher: r.Publisher,
			Count:     r.Count,
			Duration:  r.Duration.String(),
			Error:     errMsg,
		}
	}

	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error      string      `json:"error"`
	Code       string      `json:"code,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}
