package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/legalaidline/intakeline/internal/models"
)

// formatError builds the result returned when the caller's answer fails
// format validation. The session stays on the same step and the agent
// re-asks using the message.
func formatError(message string) models.Result {
	return models.Result{Status: models.StatusError, Error: message}
}

// decodeArgs unmarshals the agent-extracted arguments. Unknown fields are
// rejected so a drifting tool schema surfaces as a re-ask, not silent loss.
func decodeArgs(args json.RawMessage, out interface{}) error {
	dec := json.NewDecoder(strings.NewReader(string(args)))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// systemPhoneNumber reports whether the phone system captured the caller's
// number, then hands off to the collection step either way so the caller can
// confirm or supply it.
func (e *Engine) systemPhoneNumber(_ context.Context, session *Session, _ json.RawMessage) (interface{}, *models.Step, error) {
	slog.Debug("flow.systemPhoneNumber: caller ID", "sessionID", session.ID, "hasCallerID", session.CallerID != "")
	result := models.PhoneNumberResult{
		Result:      models.Result{Status: models.StatusFromBool(session.CallerID != "")},
		PhoneNumber: session.CallerID,
	}
	if session.CallerID == "" {
		result.Error = "No caller ID received"
	}
	return result, e.steps.recordPhoneNumber(), nil
}

func (e *Engine) recordPhoneNumber(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `phone_number`: %v.", err)), nil, nil
	}

	isValid, validated := e.validator.CheckPhoneNumber(in.PhoneNumber)
	result := models.PhoneNumberResult{
		Result:      models.Result{Status: models.StatusFromBool(isValid)},
		IsValid:     isValid,
		PhoneNumber: validated,
	}
	if !isValid {
		result.Error = "Not a valid US phone number"
		return result, nil, nil
	}

	if err := session.SetJSON(models.DataKeyPhoneNumber, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordName(), nil
}

func (e *Engine) recordName(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		First  string `json:"first"`
		Middle string `json:"middle"`
		Last   string `json:"last"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `name`: %v.", err)), nil, nil
	}

	first := strings.TrimSpace(in.First)
	middle := strings.TrimSpace(in.Middle)
	last := strings.TrimSpace(in.Last)

	ok := first != "" && last != ""
	result := models.NameResult{
		Result: models.Result{Status: models.StatusFromBool(ok)},
		First:  first,
		Middle: middle,
		Last:   last,
	}
	if !ok {
		result.Error = "Required: first name and last name"
		return result, nil, nil
	}

	if err := session.SetJSON(models.DataKeyCallerName, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordServiceArea(), nil
}

// recordServiceArea gates on the covered-jurisdiction list. Only an exact
// canonical hit advances; a near match is surfaced as a confirmation re-ask
// and no match at all routes to the ineligible branch.
func (e *Engine) recordServiceArea(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		Location string `json:"location"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `location`: %v.", err)), nil, nil
	}

	match := e.validator.CheckServiceArea(in.Location)
	isEligible := match != "" && match == in.Location
	result := models.ServiceAreaResult{
		Result:     models.Result{Status: models.StatusFromBool(isEligible)},
		Location:   in.Location,
		Match:      match,
		IsEligible: isEligible,
	}

	if isEligible {
		if err := session.SetJSON(models.DataKeyServiceArea, result); err != nil {
			return nil, nil, err
		}
		return result, e.steps.recordCaseType(), nil
	}
	if match != "" {
		result.Error = fmt.Sprintf("No exact match found. Maybe you meant %s?", match)
		return result, nil, nil
	}
	providers := e.validator.AlternativeProviders()
	result.Error = fmt.Sprintf("Not in our service area. Alternate providers: %s", strings.Join(providers, ", "))
	return result, e.steps.ineligible("not in our service area", providers), nil
}

func (e *Engine) recordCaseType(ctx context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		CaseDescription string `json:"case_description"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `case_description`: %v.", err)), nil, nil
	}

	response, err := e.validator.CheckCaseType(ctx, in.CaseDescription)
	if err != nil {
		return nil, nil, fmt.Errorf("case-type check failed: %w", err)
	}
	best := response.Labels[0]
	slog.Debug("flow.recordCaseType: best label",
		"sessionID", session.ID, "label", best.Label, "confidence", best.Confidence, "code", best.LegalProblemCode)

	if best.Confidence < e.threshold && len(response.FollowUpQuestions) > 0 {
		result := models.CaseTypeResult{
			Result:           models.Result{Status: models.StatusError},
			Label:            best.Label,
			Confidence:       best.Confidence,
			LegalProblemCode: best.LegalProblemCode,
		}
		result.Error = fmt.Sprintf(
			"Use these questions to gather additional information and then resubmit the case description with the additional questions and answers. %s",
			formatFollowUps(response.FollowUpQuestions))
		return result, nil, nil
	}

	isEligible := best.LegalProblemCode != ""
	result := models.CaseTypeResult{
		Result:           models.Result{Status: models.StatusFromBool(isEligible)},
		IsEligible:       isEligible,
		Label:            best.Label,
		Confidence:       best.Confidence,
		LegalProblemCode: best.LegalProblemCode,
	}
	if !isEligible {
		providers := e.validator.AlternativeProviders()
		result.Error = fmt.Sprintf("Ineligible case type. Alternate providers: %s", strings.Join(providers, ", "))
		return result, e.steps.ineligible("ineligible case type", providers), nil
	}

	if err := session.SetJSON(models.DataKeyCaseType, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordConflict(), nil
}

func formatFollowUps(questions []models.FollowUpQuestion) string {
	parts := make([]string, 0, len(questions))
	for _, q := range questions {
		part := "Question: " + q.Question
		if len(q.Options) > 0 {
			part += " Options: " + strings.Join(q.Options, ", ")
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func (e *Engine) recordConflict(ctx context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		OpposingParties models.PotentialConflicts `json:"opposing_parties"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `opposing_parties`: %v.", err)), nil, nil
	}
	if err := in.OpposingParties.Validate(); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `opposing_parties`: %v.", err)), nil, nil
	}

	responses, err := e.validator.CheckConflict(ctx, in.OpposingParties)
	if err != nil {
		return nil, nil, fmt.Errorf("conflict check failed: %w", err)
	}

	hasHighest := responses.Counts[models.ConflictIntervalHighest] > 0
	result := models.ConflictResult{
		Result:             models.Result{Status: models.StatusFromBool(!hasHighest)},
		HasHighestConflict: hasHighest,
		Responses:          responses,
		OpposingParties:    in.OpposingParties,
	}
	if hasHighest {
		providers := e.validator.AlternativeProviders()
		result.Error = fmt.Sprintf("There is a representation conflict. Alternate providers: %s", strings.Join(providers, ", "))
		return result, e.steps.ineligible("there is a representation conflict", providers), nil
	}

	if err := session.SetJSON(models.DataKeyConflict, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordDomesticViolence(), nil
}

func (e *Engine) recordDomesticViolence(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		Perpetrators []string `json:"perpetrators"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `perpetrators`: %v.", err)), nil, nil
	}

	result := models.DomesticViolenceResult{
		Result:         models.Result{Status: models.StatusSuccess},
		IsExperiencing: len(in.Perpetrators) > 0,
		Perpetrators:   in.Perpetrators,
	}
	if err := session.SetJSON(models.DataKeyDomesticViolence, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordIncome(), nil
}

func (e *Engine) recordIncome(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		Income models.HouseholdIncome `json:"income"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `income`: %v.", err)), nil, nil
	}
	if err := in.Income.Validate(); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `income`: %v.", err)), nil, nil
	}

	isEligible, monthly := e.validator.CheckIncome(in.Income)
	result := models.IncomeResult{
		Result:        models.Result{Status: models.StatusFromBool(isEligible)},
		IsEligible:    isEligible,
		MonthlyAmount: monthly,
		Listing:       in.Income,
		HouseholdSize: len(in.Income),
	}
	if !isEligible {
		providers := e.validator.AlternativeProviders()
		result.Error = fmt.Sprintf("Over the household income limit. Alternate providers: %s", strings.Join(providers, ", "))
	}
	if err := session.SetJSON(models.DataKeyIncome, result); err != nil {
		return nil, nil, err
	}
	if !isEligible {
		return result, e.steps.confirmIncomeOverLimit(), nil
	}
	return result, e.steps.recordAssetsBenefits(), nil
}

// recordAssetsBenefits short-circuits the asset listing: Medicaid, SSI, or
// TANF recipients are asset-eligible without declaring anything.
func (e *Engine) recordAssetsBenefits(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		ReceivesBenefits bool `json:"receives_benefits"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `receives_benefits`: %v.", err)), nil, nil
	}

	if !in.ReceivesBenefits {
		return nil, e.steps.recordAssetsList(), nil
	}

	result := models.AssetsResult{
		Result:           models.Result{Status: models.StatusSuccess},
		IsEligible:       true,
		Listing:          models.Assets{},
		ReceivesBenefits: true,
	}
	if err := session.SetJSON(models.DataKeyAssets, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordCitizenship(), nil
}

func (e *Engine) recordAssetsList(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		Assets models.Assets `json:"assets"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `assets`: %v.", err)), nil, nil
	}

	isEligible, total := e.validator.CheckAssets(in.Assets)
	result := models.AssetsResult{
		Result:     models.Result{Status: models.StatusFromBool(isEligible)},
		IsEligible: isEligible,
		Listing:    in.Assets,
		TotalValue: total,
	}
	if !isEligible {
		providers := e.validator.AlternativeProviders()
		result.Error = fmt.Sprintf("Over the household assets' value limit. Alternate providers: %s", strings.Join(providers, ", "))
	}
	if err := session.SetJSON(models.DataKeyAssets, result); err != nil {
		return nil, nil, err
	}
	if !isEligible {
		return result, e.steps.confirmAssetsOverLimit(), nil
	}
	return result, e.steps.recordCitizenship(), nil
}

func (e *Engine) recordCitizenship(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		IsAUSCitizen bool `json:"is_a_us_citizen"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `is_a_us_citizen`: %v.", err)), nil, nil
	}

	result := models.CitizenshipResult{
		Result:    models.Result{Status: models.StatusSuccess},
		IsCitizen: in.IsAUSCitizen,
	}
	if err := session.SetJSON(models.DataKeyCitizenship, result); err != nil {
		return nil, nil, err
	}
	return result, e.steps.recordEmergency(), nil
}

// recordEmergency is the last question. Both answers complete the intake; the
// emergency flag only prioritizes the record downstream.
func (e *Engine) recordEmergency(ctx context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		IsEmergency bool `json:"is_emergency"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `is_emergency`: %v.", err)), nil, nil
	}

	result := models.EmergencyResult{
		Result:      models.Result{Status: models.StatusSuccess},
		IsEmergency: in.IsEmergency,
	}
	if err := session.SetJSON(models.DataKeyEmergency, result); err != nil {
		return nil, nil, err
	}

	e.queueIntakeRecord(ctx, session)
	return result, e.steps.completeIntake(), nil
}

// queueIntakeRecord assembles the completed intake from session state and
// hands it to the outbox. A queue failure is logged, not surfaced: the caller
// already answered everything and the call should end normally.
func (e *Engine) queueIntakeRecord(ctx context.Context, session *Session) {
	if e.records == nil {
		slog.Debug("flow.queueIntakeRecord: no record store configured", "sessionID", session.ID)
		return
	}
	record, err := e.buildIntakeRecord(session)
	if err != nil {
		slog.Error("flow.queueIntakeRecord: failed to assemble intake record", "sessionID", session.ID, "error", err)
		return
	}
	if err := e.records.Enqueue(ctx, record); err != nil {
		slog.Error("flow.queueIntakeRecord: failed to queue intake record", "sessionID", session.ID, "recordID", record.ID, "error", err)
		return
	}
	slog.Info("flow.queueIntakeRecord: intake record queued", "sessionID", session.ID, "recordID", record.ID)
}

// requireSessionValue reads a stored step result; a key that was never
// written means a step was skipped and the record cannot be assembled.
func requireSessionValue(session *Session, key models.DataKey, out interface{}) error {
	found, err := session.GetJSON(key, out)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("session %s has no value for %s", session.ID, key)
	}
	return nil
}

func (e *Engine) buildIntakeRecord(session *Session) (*models.IntakeRecord, error) {
	record := &models.IntakeRecord{
		ID:        uuid.NewString(),
		CallSID:   session.CallSID,
		CreatedAt: time.Now().UTC(),
	}

	var phone models.PhoneNumberResult
	if err := requireSessionValue(session, models.DataKeyPhoneNumber, &phone); err != nil {
		return nil, err
	}
	record.PhoneNumber = phone.PhoneNumber

	var name models.NameResult
	if err := requireSessionValue(session, models.DataKeyCallerName, &name); err != nil {
		return nil, err
	}
	record.First, record.Middle, record.Last = name.First, name.Middle, name.Last

	var area models.ServiceAreaResult
	if err := requireSessionValue(session, models.DataKeyServiceArea, &area); err != nil {
		return nil, err
	}
	record.ServiceArea = area.Location

	var caseType models.CaseTypeResult
	if err := requireSessionValue(session, models.DataKeyCaseType, &caseType); err != nil {
		return nil, err
	}
	record.CaseLabel = caseType.Label
	record.LegalProblemCode = caseType.LegalProblemCode

	var dv models.DomesticViolenceResult
	if err := requireSessionValue(session, models.DataKeyDomesticViolence, &dv); err != nil {
		return nil, err
	}
	record.DomesticViolence = dv.IsExperiencing

	var income models.IncomeResult
	if err := requireSessionValue(session, models.DataKeyIncome, &income); err != nil {
		return nil, err
	}
	record.MonthlyIncome = income.MonthlyAmount
	record.HouseholdSize = income.HouseholdSize
	record.IncomeEligible = income.IsEligible

	var assets models.AssetsResult
	if err := requireSessionValue(session, models.DataKeyAssets, &assets); err != nil {
		return nil, err
	}
	record.AssetsValue = assets.TotalValue
	record.ReceivesBenefits = assets.ReceivesBenefits
	record.AssetEligible = assets.IsEligible

	var citizenship models.CitizenshipResult
	if err := requireSessionValue(session, models.DataKeyCitizenship, &citizenship); err != nil {
		return nil, err
	}
	record.Citizen = citizenship.IsCitizen

	var emergency models.EmergencyResult
	if err := requireSessionValue(session, models.DataKeyEmergency, &emergency); err != nil {
		return nil, err
	}
	record.Emergency = emergency.IsEmergency

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// continueIntake is the escape hatch for a caller who chose to proceed past
// an over-limit gate. The next step is resolved through a closed registry;
// unknown names are a configuration error, not a caller mistake.
func (e *Engine) continueIntake(_ context.Context, session *Session, args json.RawMessage) (interface{}, *models.Step, error) {
	var in struct {
		NextStep string `json:"next_step"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return formatError(fmt.Sprintf("There was an error validating the `next_step`: %v.", err)), nil, nil
	}

	build, ok := e.resumable[models.FunctionName(in.NextStep)]
	if !ok {
		return nil, nil, fmt.Errorf("function %q does not exist", in.NextStep)
	}
	slog.Info("flow.continueIntake: caller chose to continue", "sessionID", session.ID, "nextStep", in.NextStep)
	return nil, build(), nil
}

func (e *Engine) endConversation(_ context.Context, session *Session, _ json.RawMessage) (interface{}, *models.Step, error) {
	slog.Info("flow.endConversation: ending conversation", "sessionID", session.ID)
	return nil, e.steps.end(), nil
}

func (e *Engine) callerEndedConversation(_ context.Context, session *Session, _ json.RawMessage) (interface{}, *models.Step, error) {
	slog.Info("flow.callerEndedConversation: caller ended conversation", "sessionID", session.ID)
	return nil, e.steps.callerEnded(), nil
}
