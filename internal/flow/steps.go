package flow

import (
	"strings"

	"github.com/legalaidline/intakeline/internal/models"
	"github.com/legalaidline/intakeline/internal/prompts"
)

// stepPromptKeys lists every prompt the engine surfaces, keyed by the step it
// belongs to. prompts.Load verifies these at startup so a missing prompt can
// never surface mid-call.
var stepPromptKeys = []string{
	string(models.StepInitial),
	string(models.StepRecordPhoneNumber),
	string(models.StepRecordName),
	string(models.StepRecordServiceArea),
	string(models.StepRecordCaseType),
	string(models.StepRecordConflict),
	string(models.StepRecordDomesticViolence),
	string(models.StepRecordIncome),
	string(models.StepRecordAssetsBenefits),
	string(models.StepRecordAssetsList),
	string(models.StepRecordCitizenship),
	string(models.StepRecordEmergency),
	string(models.StepCompleteIntake),
	string(models.StepConfirmIncomeOverLimit),
	string(models.StepConfirmAssetsOverLimit),
	string(models.StepIneligible),
	string(models.StepEnd),
	string(models.StepCallerEnded),
}

// RequiredPrompts returns the prompt keys the engine needs, for prompts.Load.
func RequiredPrompts() []string {
	return append([]string(nil), stepPromptKeys...)
}

// stepBuilder constructs the conversation steps. Every step carries the
// standing role message ahead of its task so the dialogue agent keeps its
// persona after a context reset.
type stepBuilder struct {
	lib *prompts.Library
}

// build assembles a step. reset marks the major transitions where prior
// dialogue is compacted into a summary before the step runs.
func (b *stepBuilder) build(name models.StepName, reset bool, fns ...models.FunctionName) *models.Step {
	step := &models.Step{
		Name:         name,
		Instructions: b.lib.Role() + "\n\n" + b.lib.Task(string(name)),
		Functions:    fns,
		ContextReset: reset,
	}
	if reset {
		step.SummaryPrompt = b.lib.SummaryPrompt()
	}
	return step
}

func (b *stepBuilder) initial(taskKey string, initialFn models.FunctionName) *models.Step {
	step := b.build(models.StepInitial, false, initialFn, models.FuncEndConversation, models.FuncCallerEndedConversation)
	step.Instructions = b.lib.Role() + "\n\n" + b.lib.Task(taskKey)
	return step
}

func (b *stepBuilder) recordPhoneNumber() *models.Step {
	return b.build(models.StepRecordPhoneNumber, false, models.FuncRecordPhoneNumber)
}

func (b *stepBuilder) recordName() *models.Step {
	return b.build(models.StepRecordName, true, models.FuncRecordName)
}

func (b *stepBuilder) recordServiceArea() *models.Step {
	return b.build(models.StepRecordServiceArea, true, models.FuncRecordServiceArea)
}

func (b *stepBuilder) recordCaseType() *models.Step {
	return b.build(models.StepRecordCaseType, true, models.FuncRecordCaseType)
}

func (b *stepBuilder) recordConflict() *models.Step {
	return b.build(models.StepRecordConflict, true, models.FuncRecordConflict)
}

func (b *stepBuilder) recordDomesticViolence() *models.Step {
	return b.build(models.StepRecordDomesticViolence, true, models.FuncRecordDomesticViolence)
}

func (b *stepBuilder) recordIncome() *models.Step {
	return b.build(models.StepRecordIncome, true, models.FuncRecordIncome)
}

func (b *stepBuilder) recordAssetsBenefits() *models.Step {
	return b.build(models.StepRecordAssetsBenefits, true, models.FuncRecordAssetsBenefits)
}

func (b *stepBuilder) recordAssetsList() *models.Step {
	return b.build(models.StepRecordAssetsList, true, models.FuncRecordAssetsList)
}

func (b *stepBuilder) recordCitizenship() *models.Step {
	return b.build(models.StepRecordCitizenship, true, models.FuncRecordCitizenship)
}

func (b *stepBuilder) recordEmergency() *models.Step {
	return b.build(models.StepRecordEmergency, true, models.FuncRecordEmergency)
}

func (b *stepBuilder) completeIntake() *models.Step {
	return b.build(models.StepCompleteIntake, true, models.FuncEndConversation)
}

func (b *stepBuilder) confirmIncomeOverLimit() *models.Step {
	return b.build(models.StepConfirmIncomeOverLimit, true,
		models.FuncContinueIntake, models.FuncCallerEndedConversation, models.FuncEndConversation)
}

func (b *stepBuilder) confirmAssetsOverLimit() *models.Step {
	return b.build(models.StepConfirmAssetsOverLimit, true,
		models.FuncContinueIntake, models.FuncCallerEndedConversation, models.FuncEndConversation)
}

// ineligible builds the no-service branch, with the reason and the alternative
// providers substituted into the prompt.
func (b *stepBuilder) ineligible(reason string, providers []string) *models.Step {
	step := b.build(models.StepIneligible, true, models.FuncEndConversation)
	step.Instructions = b.lib.Role() + "\n\n" + prompts.Format(b.lib.Task(string(models.StepIneligible)), map[string]string{
		"no_service_reason":        reason,
		"alternate_providers_list": strings.Join(providers, ", "),
	})
	return step
}

func (b *stepBuilder) end() *models.Step {
	step := b.build(models.StepEnd, false)
	step.TerminateCall = true
	return step
}

func (b *stepBuilder) callerEnded() *models.Step {
	step := b.build(models.StepCallerEnded, false)
	step.TerminateCall = true
	return step
}
