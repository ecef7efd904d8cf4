package validate

import (
	"github.com/legalaidline/intakeline/internal/models"
)

// DefaultAssetLimit is the program's household asset ceiling in dollars.
const DefaultAssetLimit = 10_000

// AssetAppraiser sums a caller's declared assets against a fixed limit.
type AssetAppraiser struct {
	limit int
}

// NewAssetAppraiser builds an appraiser with the given dollar limit;
// non-positive limits fall back to the default.
func NewAssetAppraiser(limit int) *AssetAppraiser {
	if limit <= 0 {
		limit = DefaultAssetLimit
	}
	return &AssetAppraiser{limit: limit}
}

// Appraise totals every value across the listing and reports eligibility.
// Negative declared values subtract from the total rather than failing;
// a total exactly at the limit is still eligible.
func (a *AssetAppraiser) Appraise(assets models.Assets) (bool, int) {
	total := 0
	for _, entry := range assets {
		for _, value := range entry {
			total += value
		}
	}
	return total <= a.limit, total
}
