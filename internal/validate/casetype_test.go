package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/legalaidline/intakeline/internal/models"
)

func TestStaticCaseTypeClassifier(t *testing.T) {
	classifier := NewStaticCaseTypeClassifier(Taxonomy{
		"Divorce":                  "30 Divorce/Separation/Annulment",
		"Bankruptcy/Debtor Relief": "01 Bankruptcy/Debtor Relief",
	})
	ctx := context.Background()

	response, err := classifier.Classify(ctx, "  Divorce ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Labels[0].LegalProblemCode == "" {
		t.Error("expected divorce to map to a legal problem code")
	}

	// Descriptions and labels match regardless of casing.
	response, err = classifier.Classify(ctx, "divorce")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Labels[0].LegalProblemCode != "30 Divorce/Separation/Annulment" {
		t.Errorf("expected lowercase description to match, got %q", response.Labels[0].LegalProblemCode)
	}

	// Unknown case types default to ineligible: empty code.
	response, err = classifier.Classify(ctx, "traffic citation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Labels[0].LegalProblemCode != "" {
		t.Errorf("expected unknown type to carry an empty code, got %q", response.Labels[0].LegalProblemCode)
	}
}

func TestStaticCaseTypeClassifierShippedTaxonomy(t *testing.T) {
	taxonomy, err := LoadTaxonomy(filepath.Join("..", "..", "data", "case_type_taxonomy.csv"))
	if err != nil {
		t.Fatalf("failed to load taxonomy: %v", err)
	}
	classifier := NewStaticCaseTypeClassifier(taxonomy)

	for _, description := range []string{"divorce", "Divorce", "DIVORCE"} {
		response, err := classifier.Classify(context.Background(), description)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", description, err)
		}
		if response.Labels[0].LegalProblemCode == "" {
			t.Errorf("description %q must map to a legal problem code", description)
		}
	}
}

type mockClassificationService struct {
	response models.ClassificationResponse
	err      error
}

func (m *mockClassificationService) Classify(context.Context, string) (models.ClassificationResponse, error) {
	return m.response, m.err
}

func TestRemoteCaseTypeClassifierEnrichesLabels(t *testing.T) {
	svc := &mockClassificationService{response: models.ClassificationResponse{
		Labels: []models.Label{
			{Label: "Family/Divorce", Confidence: 4.2},
			{Label: "Unknown Thing", Confidence: 1.0},
		},
	}}
	classifier := NewRemoteCaseTypeClassifier(svc, Taxonomy{"Family/Divorce": "30 Divorce/Separation/Annulment"})

	response, err := classifier.Classify(context.Background(), "my spouse filed papers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := response.Labels[0].LegalProblemCode; got != "30 Divorce/Separation/Annulment" {
		t.Errorf("expected mapped code, got %q", got)
	}
	if got := response.Labels[1].LegalProblemCode; got != "" {
		t.Errorf("unmapped label must carry an empty code, got %q", got)
	}
}

func TestRemoteCaseTypeClassifierDependencyFailure(t *testing.T) {
	classifier := NewRemoteCaseTypeClassifier(&mockClassificationService{err: fmt.Errorf("503")}, Taxonomy{})
	_, err := classifier.Classify(context.Background(), "anything")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Errorf("expected ErrDependencyUnavailable, got %v", err)
	}

	classifier = NewRemoteCaseTypeClassifier(&mockClassificationService{}, Taxonomy{})
	_, err = classifier.Classify(context.Background(), "anything")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Errorf("expected ErrDependencyUnavailable for empty label list, got %v", err)
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.csv")
	content := "label,legal_problem_code\nFamily/Divorce,30 Divorce/Separation/Annulment\nHousing/Eviction,63 Private Landlord/Tenant\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	taxonomy, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(taxonomy) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(taxonomy))
	}
	if taxonomy["Housing/Eviction"] != "63 Private Landlord/Tenant" {
		t.Errorf("unexpected code: %q", taxonomy["Housing/Eviction"])
	}

	bad := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(bad, []byte("nope,columns\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadTaxonomy(bad); err == nil {
		t.Error("expected error for missing columns, got nil")
	}
}
