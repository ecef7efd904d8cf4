package validate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/legalaidline/intakeline/internal/models"
)

// ClassificationService is the external capability that maps a free-text
// problem description onto ranked taxonomy labels.
type ClassificationService interface {
	Classify(ctx context.Context, caseDescription string) (models.ClassificationResponse, error)
}

// CaseTypeClassifier determines whether a described legal problem is one the
// service can accept. Both the static and the delegated variant return a
// ClassificationResponse; eligibility is the truthiness of the best label's
// mapped legal-problem code.
type CaseTypeClassifier interface {
	Classify(ctx context.Context, caseDescription string) (models.ClassificationResponse, error)
}

// Taxonomy maps a classification label to its legal-problem code.
type Taxonomy map[string]string

// LoadTaxonomy reads a CSV with header columns "label" and
// "legal_problem_code" into a lookup table.
func LoadTaxonomy(path string) (Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy header from %s: %w", path, err)
	}
	labelCol, codeCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "label":
			labelCol = i
		case "legal_problem_code":
			codeCol = i
		}
	}
	if labelCol < 0 || codeCol < 0 {
		return nil, fmt.Errorf("taxonomy file %s must have label and legal_problem_code columns", path)
	}

	taxonomy := make(Taxonomy)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read taxonomy row from %s: %w", path, err)
		}
		taxonomy[row[labelCol]] = row[codeCol]
	}
	slog.Debug("validate.LoadTaxonomy: taxonomy loaded", "path", path, "labels", len(taxonomy))
	return taxonomy, nil
}

// StaticCaseTypeClassifier matches case descriptions against a fixed
// allow-list of case-type keywords. Unknown types are ineligible: their label
// carries an empty legal-problem code.
type StaticCaseTypeClassifier struct {
	allowed Taxonomy
}

// NewStaticCaseTypeClassifier builds the allow-list variant. Taxonomy keys
// are case-folded at construction so lookups match the folded description.
func NewStaticCaseTypeClassifier(allowed Taxonomy) *StaticCaseTypeClassifier {
	folded := make(Taxonomy, len(allowed))
	for label, code := range allowed {
		folded[strings.ToLower(strings.TrimSpace(label))] = code
	}
	return &StaticCaseTypeClassifier{allowed: folded}
}

// Classify matches the trimmed, case-folded description against the allow-list.
func (c *StaticCaseTypeClassifier) Classify(_ context.Context, caseDescription string) (models.ClassificationResponse, error) {
	normalized := strings.ToLower(strings.TrimSpace(caseDescription))
	label := models.Label{Label: normalized, Confidence: 5}
	if code, ok := c.allowed[normalized]; ok {
		label.LegalProblemCode = code
	}
	return models.ClassificationResponse{Labels: []models.Label{label}}, nil
}

// RemoteCaseTypeClassifier delegates to the external classification service
// and enriches returned labels with legal-problem codes from the local
// taxonomy. Unmapped labels keep an empty code.
type RemoteCaseTypeClassifier struct {
	service  ClassificationService
	taxonomy Taxonomy
}

// NewRemoteCaseTypeClassifier builds the delegated variant.
func NewRemoteCaseTypeClassifier(service ClassificationService, taxonomy Taxonomy) *RemoteCaseTypeClassifier {
	return &RemoteCaseTypeClassifier{service: service, taxonomy: taxonomy}
}

// Classify submits the description and maps each label through the taxonomy.
// A service failure is a dependency failure, never retried here.
func (c *RemoteCaseTypeClassifier) Classify(ctx context.Context, caseDescription string) (models.ClassificationResponse, error) {
	response, err := c.service.Classify(ctx, caseDescription)
	if err != nil {
		return models.ClassificationResponse{}, fmt.Errorf("%w: case-type classification: %w", ErrDependencyUnavailable, err)
	}
	if len(response.Labels) == 0 {
		return models.ClassificationResponse{}, fmt.Errorf("%w: case-type classification returned no labels", ErrDependencyUnavailable)
	}
	for i := range response.Labels {
		response.Labels[i].LegalProblemCode = c.taxonomy[response.Labels[i].Label]
	}
	return response, nil
}
