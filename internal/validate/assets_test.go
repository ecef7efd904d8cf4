package validate

import (
	"testing"

	"github.com/legalaidline/intakeline/internal/models"
)

func TestAppraise(t *testing.T) {
	appraiser := NewAssetAppraiser(0) // default limit

	cases := []struct {
		name     string
		assets   models.Assets
		eligible bool
		total    int
	}{
		{"car and savings", models.Assets{{"car": 5000}, {"savings": 2000}}, true, 7000},
		{"exactly at limit", models.Assets{{"house": 10_000}}, true, 10_000},
		{"one over limit", models.Assets{{"house": 10_001}}, false, 10_001},
		{"no assets", models.Assets{}, true, 0},
		{"negative value subtracts", models.Assets{{"car": 12_000}, {"car loan": -4000}}, true, 8000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eligible, total := appraiser.Appraise(tc.assets)
			if eligible != tc.eligible || total != tc.total {
				t.Errorf("Appraise(%v) = (%v, %d), expected (%v, %d)", tc.assets, eligible, total, tc.eligible, tc.total)
			}
		})
	}
}

func TestNewAssetAppraiserCustomLimit(t *testing.T) {
	appraiser := NewAssetAppraiser(5000)
	if eligible, _ := appraiser.Appraise(models.Assets{{"boat": 5001}}); eligible {
		t.Error("expected 5001 to exceed a 5000 limit")
	}
	if eligible, _ := appraiser.Appraise(models.Assets{{"boat": 5000}}); !eligible {
		t.Error("expected 5000 to be eligible at a 5000 limit")
	}
}
