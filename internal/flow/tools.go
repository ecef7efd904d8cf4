package flow

import (
	"log/slog"

	"github.com/legalaidline/intakeline/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// toolDefinitions maps each flow-step function to its OpenAI tool schema. The
// dialogue agent only ever sees the subset allowed by the current step.
var toolDefinitions = map[models.FunctionName]openai.ChatCompletionToolParam{
	models.FuncSystemPhoneNumber: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncSystemPhoneNumber),
			Description: openai.String("Check whether the phone system received the caller's phone number. If so, confirm the number with the caller; if not, collect the caller's phone number."),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	},
	models.FuncRecordPhoneNumber: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordPhoneNumber),
			Description: openai.String("Collect the caller's US phone number."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"phone_number": map[string]interface{}{
						"type":        "string",
						"description": "The caller's 10 digit US phone number",
					},
				},
				"required": []string{"phone_number"},
			},
		},
	},
	models.FuncRecordName: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordName),
			Description: openai.String("Record the caller's name."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"first":  map[string]interface{}{"type": "string", "description": "The caller's first name"},
					"middle": map[string]interface{}{"type": "string", "description": "The caller's middle name, empty if none"},
					"last":   map[string]interface{}{"type": "string", "description": "The caller's last name"},
				},
				"required": []string{"first", "middle", "last"},
			},
		},
	},
	models.FuncRecordServiceArea: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordServiceArea),
			Description: openai.String("Record the service area location."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{
						"type":        "string",
						"description": "The location of the caller's home or the legal incident. Must be a city or county.",
					},
				},
				"required": []string{"location"},
			},
		},
	},
	models.FuncRecordCaseType: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordCaseType),
			Description: openai.String("Check eligibility of the caller's legal case."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"case_description": map[string]interface{}{
						"type":        "string",
						"description": "The description of the legal case that the caller has",
					},
				},
				"required": []string{"case_description"},
			},
		},
	},
	models.FuncRecordConflict: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordConflict),
			Description: openai.String("Collect information about the opposing parties and check for conflicts of interest."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"opposing_parties": map[string]interface{}{
						"type":        "array",
						"description": "People who may be involved as opposing parties in the legal case",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"first":       map[string]interface{}{"type": "string", "description": "First name"},
								"middle":      map[string]interface{}{"type": "string", "description": "Middle name, if known"},
								"last":        map[string]interface{}{"type": "string", "description": "Last name"},
								"dob":         map[string]interface{}{"type": "string", "description": "Date of birth as YYYY-MM-DD, if known"},
								"visa_number": map[string]interface{}{"type": "string", "description": "Visa number, if applicable"},
								"phones": map[string]interface{}{
									"type":        "array",
									"description": "Known phone numbers",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"number": map[string]interface{}{"type": "string"},
											"type": map[string]interface{}{
												"type": "string",
												"enum": []string{"business", "home", "mobile", "fax", "other"},
											},
										},
										"required": []string{"number", "type"},
									},
								},
							},
							"required": []string{"first", "last"},
						},
					},
				},
				"required": []string{"opposing_parties"},
			},
		},
	},
	models.FuncRecordDomesticViolence: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordDomesticViolence),
			Description: openai.String("Record the names of perpetrators of domestic violence if the caller is experiencing domestic violence. An empty list means the caller is not."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"perpetrators": map[string]interface{}{
						"type":        "array",
						"description": "The individuals perpetrating domestic violence on the caller",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"perpetrators"},
			},
		},
	},
	models.FuncRecordIncome: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordIncome),
			Description: openai.String("Collect income information for all household members and determine eligibility."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"income": map[string]interface{}{
						"type":        "object",
						"description": `Each key is a household member's name; each value maps an income type to {"amount": int, "period": "month"|"year"}. Example: {"John Doe": {"wages": {"amount": 2000, "period": "month"}}}`,
						"additionalProperties": map[string]interface{}{
							"type": "object",
							"additionalProperties": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"amount": map[string]interface{}{"type": "integer"},
									"period": map[string]interface{}{"type": "string", "enum": []string{"month", "year"}},
								},
								"required": []string{"amount", "period"},
							},
						},
					},
				},
				"required": []string{"income"},
			},
		},
	},
	models.FuncRecordAssetsBenefits: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordAssetsBenefits),
			Description: openai.String("Record whether the caller is receiving Medicaid, SSI, or TANF benefits."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"receives_benefits": map[string]interface{}{
						"type":        "boolean",
						"description": "The caller receives government benefits",
					},
				},
				"required": []string{"receives_benefits"},
			},
		},
	},
	models.FuncRecordAssetsList: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordAssetsList),
			Description: openai.String("Collect the values of the caller's assets and determine eligibility."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"assets": map[string]interface{}{
						"type":        "array",
						"description": `Each entry maps a single asset name to an integer net present value. Example: [{"car": 5000}, {"savings": 2000}]`,
						"items": map[string]interface{}{
							"type":                 "object",
							"additionalProperties": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"assets"},
			},
		},
	},
	models.FuncRecordCitizenship: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordCitizenship),
			Description: openai.String("Record whether the caller is a US citizen."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"is_a_us_citizen": map[string]interface{}{
						"type":        "boolean",
						"description": "The caller is or is not a US citizen",
					},
				},
				"required": []string{"is_a_us_citizen"},
			},
		},
	},
	models.FuncRecordEmergency: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncRecordEmergency),
			Description: openai.String("Record whether the caller's case is an emergency."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"is_emergency": map[string]interface{}{
						"type":        "boolean",
						"description": "The caller's case is or is not an emergency",
					},
				},
				"required": []string{"is_emergency"},
			},
		},
	},
	models.FuncContinueIntake: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncContinueIntake),
			Description: openai.String("Continue the intake even though the caller may be ineligible."),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"next_step": map[string]interface{}{
						"type":        "string",
						"description": "The next step of the intake",
					},
				},
				"required": []string{"next_step"},
			},
		},
	},
	models.FuncEndConversation: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncEndConversation),
			Description: openai.String("End the conversation."),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	},
	models.FuncCallerEndedConversation: {
		Type: "function",
		Function: shared.FunctionDefinitionParam{
			Name:        string(models.FuncCallerEndedConversation),
			Description: openai.String("The caller ended the conversation."),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	},
}

// ToolsForStep returns the OpenAI tool definitions for the functions callable
// from the given step.
func ToolsForStep(step *models.Step) []openai.ChatCompletionToolParam {
	if step == nil {
		return nil
	}
	tools := make([]openai.ChatCompletionToolParam, 0, len(step.Functions))
	for _, fn := range step.Functions {
		def, ok := toolDefinitions[fn]
		if !ok {
			slog.Error("flow.ToolsForStep: no tool definition for function", "function", fn, "step", step.Name)
			continue
		}
		tools = append(tools, def)
	}
	return tools
}
