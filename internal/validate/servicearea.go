package validate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// DefaultServiceAreaCutoff is the weighted-ratio similarity floor below which
// a candidate jurisdiction is not considered a match.
const DefaultServiceAreaCutoff = 50

// ServiceAreaMatcher fuzzy-matches free-text locations against the canonical
// list of covered jurisdictions. The list is read-only after construction and
// safe to share across concurrent calls.
type ServiceAreaMatcher struct {
	names  []string
	cutoff int
}

// NewServiceAreaMatcher builds a matcher over the canonical jurisdiction names.
func NewServiceAreaMatcher(names []string, cutoff int) (*ServiceAreaMatcher, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("service area list must not be empty")
	}
	if cutoff <= 0 {
		cutoff = DefaultServiceAreaCutoff
	}
	return &ServiceAreaMatcher{names: names, cutoff: cutoff}, nil
}

// LoadServiceAreas reads the canonical jurisdiction list from a JSON array.
func LoadServiceAreas(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service area file %s: %w", path, err)
	}
	var names []string
	if err := json.Unmarshal(content, &names); err != nil {
		return nil, fmt.Errorf("failed to parse service area file %s: %w", path, err)
	}
	return names, nil
}

// Match returns the best-scoring canonical jurisdiction name for the caller's
// free-text location, or "" when nothing clears the similarity floor. The
// weighted ratio scorer case-folds and strips punctuation on both sides, so
// "amelia county" and "Amelia" both land on "Amelia County". Eligibility is
// decided at the call site: only an exact hit auto-qualifies, a non-exact hit
// becomes a confirmation prompt.
func (m *ServiceAreaMatcher) Match(location string) string {
	best := ""
	bestScore := 0
	for _, name := range m.names {
		score := fuzzy.WRatio(location, name)
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	if bestScore < m.cutoff {
		slog.Debug("ServiceAreaMatcher.Match: no jurisdiction cleared the cutoff", "location", location, "bestScore", bestScore)
		return ""
	}
	return best
}
