package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/legalaidline/intakeline/internal/models"
)

// Validator error kinds. ErrDependencyUnavailable marks an external-service
// failure whose recovery action (try again later) differs from a caller
// format error (re-ask the question).
var (
	ErrDependencyUnavailable = errors.New("external validation service unavailable")
	ErrInvalidPartyPhone     = errors.New("invalid US phone number for opposing party")
)

// ConflictService is the external capability that scores one opposing party
// against existing and prior clients.
type ConflictService interface {
	CheckConflict(ctx context.Context, party models.PotentialConflict) (models.ConflictCheckResponse, error)
}

// ConflictChecker determines whether any named opposing party creates a
// conflict of interest. Intake is blocked iff the highest-severity bucket
// counts at least one hit.
type ConflictChecker interface {
	Check(ctx context.Context, parties models.PotentialConflicts) (models.ConflictCheckResponses, error)
}

// StaticConflictChecker flags parties on a fixed deny-list. Matching is
// case-sensitive on the "First Last" form. Used for tests and development.
type StaticConflictChecker struct {
	denied map[string]struct{}
}

// NewStaticConflictChecker builds the deny-list variant.
func NewStaticConflictChecker(names []string) *StaticConflictChecker {
	denied := make(map[string]struct{}, len(names))
	for _, name := range names {
		denied[name] = struct{}{}
	}
	return &StaticConflictChecker{denied: denied}
}

// Check scores every party: deny-list hits land in the highest bucket.
func (c *StaticConflictChecker) Check(_ context.Context, parties models.PotentialConflicts) (models.ConflictCheckResponses, error) {
	responses := models.NewConflictCheckResponses()
	for _, party := range parties {
		full := strings.TrimSpace(party.First + " " + party.Last)
		response := models.ConflictCheckResponse{Status: 200, Message: "no match", Interval: models.ConflictIntervalLowest, Score: 0}
		if _, hit := c.denied[full]; hit {
			response = models.ConflictCheckResponse{Status: 200, Message: "existing client match", Interval: models.ConflictIntervalHighest, Score: 100}
		}
		responses.Add(response)
	}
	return responses, nil
}

// RemoteConflictChecker submits each opposing party individually to the
// external conflict-check capability and tallies the returned severity
// buckets. A single failed submission fails the whole check; nothing is
// silently retried.
type RemoteConflictChecker struct {
	service ConflictService
}

// NewRemoteConflictChecker builds the delegated variant.
func NewRemoteConflictChecker(service ConflictService) *RemoteConflictChecker {
	return &RemoteConflictChecker{service: service}
}

// Check normalizes each party's phone numbers, submits the party, and tallies
// the response intervals. An unparseable phone number is the caller's format
// error, not a dependency failure.
func (c *RemoteConflictChecker) Check(ctx context.Context, parties models.PotentialConflicts) (models.ConflictCheckResponses, error) {
	responses := models.NewConflictCheckResponses()
	for _, party := range parties {
		normalized, err := normalizePartyPhones(party)
		if err != nil {
			return models.ConflictCheckResponses{}, err
		}
		response, err := c.service.CheckConflict(ctx, normalized)
		if err != nil {
			return models.ConflictCheckResponses{}, fmt.Errorf("%w: conflict check: %w", ErrDependencyUnavailable, err)
		}
		if err := response.Validate(); err != nil {
			return models.ConflictCheckResponses{}, fmt.Errorf("%w: conflict check returned invalid payload: %w", ErrDependencyUnavailable, err)
		}
		responses.Add(response)
		slog.Debug("RemoteConflictChecker.Check: party scored", "interval", response.Interval, "score", response.Score)
	}
	return responses, nil
}

func normalizePartyPhones(party models.PotentialConflict) (models.PotentialConflict, error) {
	if len(party.Phones) == 0 {
		return party, nil
	}
	phones := make([]models.Phone, len(party.Phones))
	for i, phone := range party.Phones {
		valid, formatted := CheckPhoneNumber(phone.Number)
		if !valid {
			return party, fmt.Errorf("%w: %q", ErrInvalidPartyPhone, phone.Number)
		}
		phones[i] = models.Phone{Number: formatted, Type: phone.Type}
	}
	party.Phones = phones
	return party, nil
}
