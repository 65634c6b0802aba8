package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lehrmarkt-service/internal/domain"
)

func TestToSearchParams_PaginationLenient(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", "", 1, 20},
		{"valid", "3", "50", 3, 50},
		{"zero page clamps", "0", "1000", 1, 100},
		{"negative page clamps", "-5", "20", 1, 20},
		{"non-numeric page", "abc", "20", 1, 20},
		{"non-numeric limit", "2", "xyz", 2, 20},
		{"limit above cap", "1", "101", 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ListMaterialsRequest{Page: tt.page, Limit: tt.limit}
			params := req.ToSearchParams()

			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

func TestToSearchParams_SortFallsBack(t *testing.T) {
	req := ListMaterialsRequest{Sort: "upside-down"}
	assert.Equal(t, domain.SortNewest, req.ToSearchParams().Sort)

	req = ListMaterialsRequest{Sort: "price-low"}
	assert.Equal(t, domain.SortPriceLow, req.ToSearchParams().Sort)
}

func TestToSearchParams_SearchDefaultsToRelevance(t *testing.T) {
	req := ListMaterialsRequest{Search: "Brüche"}
	assert.Equal(t, domain.SortRelevance, req.ToSearchParams().Sort)
}

func TestToSearchParams_MaxPriceZeroIsPresent(t *testing.T) {
	req := ListMaterialsRequest{MaxPrice: "0"}
	params := req.ToSearchParams()

	require.NotNil(t, params.MaxPrice)
	assert.Equal(t, 0, *params.MaxPrice)
}

func TestToSearchParams_MalformedPriceDropped(t *testing.T) {
	req := ListMaterialsRequest{MinPrice: "cheap", MaxPrice: "-3"}
	params := req.ToSearchParams()

	assert.Nil(t, params.MinPrice)
	assert.Nil(t, params.MaxPrice)
}

func TestToSearchParams_DialectLenient(t *testing.T) {
	assert.Equal(t, domain.DialectSwiss,
		(&ListMaterialsRequest{Dialect: "SWISS"}).ToSearchParams().Dialect)
	assert.Equal(t, domain.Dialect(""),
		(&ListMaterialsRequest{Dialect: "BOTH"}).ToSearchParams().Dialect)
	assert.Equal(t, domain.Dialect(""),
		(&ListMaterialsRequest{Dialect: "klingon"}).ToSearchParams().Dialect)
}

func TestToSearchParams_CSVFields(t *testing.T) {
	req := ListMaterialsRequest{
		Formats: "pdf, word, floppy",
		Cantons: "ZH,,BE, ",
	}
	params := req.ToSearchParams()

	assert.Equal(t, []domain.FormatBucket{domain.FormatPDF, domain.FormatWord}, params.Formats)
	assert.Equal(t, []string{"ZH", "BE"}, params.Cantons)
}

func TestToSearchParams_MIIntegratedStrict(t *testing.T) {
	assert.True(t, (&ListMaterialsRequest{MIIntegrated: "true"}).ToSearchParams().MIIntegrated)
	assert.False(t, (&ListMaterialsRequest{MIIntegrated: "1"}).ToSearchParams().MIIntegrated)
	assert.False(t, (&ListMaterialsRequest{MIIntegrated: "yes"}).ToSearchParams().MIIntegrated)
}
