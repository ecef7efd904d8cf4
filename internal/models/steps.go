// Package models defines step descriptors consumed by the dialogue agent.
package models

// StepName identifies one conversation node of the intake questionnaire.
type StepName string

// Conversation nodes in canonical intake order, plus branch and terminal nodes.
const (
	StepInitial                StepName = "initial"
	StepRecordPhoneNumber      StepName = "record_phone_number"
	StepRecordName             StepName = "record_name"
	StepRecordServiceArea      StepName = "record_service_area"
	StepRecordCaseType         StepName = "record_case_type"
	StepRecordConflict         StepName = "record_conflict"
	StepRecordDomesticViolence StepName = "record_domestic_violence"
	StepRecordIncome           StepName = "record_income"
	StepRecordAssetsBenefits   StepName = "record_assets_receives_benefits"
	StepRecordAssetsList       StepName = "record_assets_list"
	StepRecordCitizenship      StepName = "record_citizenship"
	StepRecordEmergency        StepName = "record_emergency"
	StepCompleteIntake         StepName = "complete_intake"
	StepConfirmIncomeOverLimit StepName = "confirm_income_over_limit"
	StepConfirmAssetsOverLimit StepName = "confirm_assets_over_limit"
	StepIneligible             StepName = "ineligible"
	StepEnd                    StepName = "end"
	StepCallerEnded            StepName = "caller_ended_conversation"
)

// FunctionName identifies a flow-step function callable by the dialogue agent.
type FunctionName string

// Callable flow-step functions. Each step exposes a subset of these; the
// engine rejects calls to functions the current step does not allow.
const (
	FuncSystemPhoneNumber       FunctionName = "system_phone_number"
	FuncRecordPhoneNumber       FunctionName = "record_phone_number"
	FuncRecordName              FunctionName = "record_name"
	FuncRecordServiceArea       FunctionName = "record_service_area"
	FuncRecordCaseType          FunctionName = "record_case_type"
	FuncRecordConflict          FunctionName = "record_conflict"
	FuncRecordDomesticViolence  FunctionName = "record_domestic_violence"
	FuncRecordIncome            FunctionName = "record_income"
	FuncRecordAssetsBenefits    FunctionName = "record_assets_receives_benefits"
	FuncRecordAssetsList        FunctionName = "record_assets_list"
	FuncRecordCitizenship       FunctionName = "record_citizenship"
	FuncRecordEmergency         FunctionName = "record_emergency"
	FuncContinueIntake          FunctionName = "continue_intake"
	FuncEndConversation         FunctionName = "end_conversation"
	FuncCallerEndedConversation FunctionName = "caller_ended_conversation"
)

// Step is one conversation node: the instructions surfaced to the dialogue
// agent, the flow-step functions callable from here, and optional directives
// for the surrounding pipeline. Steps are immutable once built.
type Step struct {
	Name StepName `json:"name"`
	// Instructions is the natural-language task for the dialogue agent.
	Instructions string `json:"instructions"`
	// Functions lists the flow-step functions callable from this node.
	Functions []FunctionName `json:"functions"`
	// ContextReset asks the context layer to compact prior dialogue into a
	// summary before this node runs, bounding context growth over a long call.
	ContextReset bool `json:"context_reset,omitempty"`
	// SummaryPrompt guides the compaction when ContextReset is set.
	SummaryPrompt string `json:"summary_prompt,omitempty"`
	// TerminateCall tells the transport layer to end the call after this
	// node's closing message is spoken.
	TerminateCall bool `json:"terminate_call,omitempty"`
}

// Allows reports whether fn is callable from this step.
func (s *Step) Allows(fn FunctionName) bool {
	for _, f := range s.Functions {
		if f == fn {
			return true
		}
	}
	return false
}

// Terminal reports whether the step ends the conversation.
func (s *Step) Terminal() bool {
	return s.TerminateCall
}

// DataKey names an entry in the call-scoped session state store.
type DataKey string

// Session-state keys written by the flow-step functions.
const (
	DataKeyPhoneNumber      DataKey = "phone_number"
	DataKeyCallerName       DataKey = "caller_name"
	DataKeyServiceArea      DataKey = "service_area"
	DataKeyCaseType         DataKey = "case_type"
	DataKeyConflict         DataKey = "conflict"
	DataKeyDomesticViolence DataKey = "domestic_violence"
	DataKeyIncome           DataKey = "income"
	DataKeyAssets           DataKey = "assets"
	DataKeyCitizenship      DataKey = "citizenship"
	DataKeyEmergency        DataKey = "emergency"
)
