package practice

import "github.com/pavelanni/examprep/internal/llm"

// Default shape of a generated test.
const (
	DefaultQuestionCount = 5
	OptionCount          = 4
)

// PassageSchema is the response schema for passage generation.
var PassageSchema = &llm.Schema{
	Name:        "passage-questions",
	Description: "A reading passage with multiple-choice questions about it",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"passage": map[string]any{
				"type":        "string",
				"description": "The reading passage",
			},
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":     "array",
							"minItems": OptionCount,
							"maxItems": OptionCount,
							"items":    map[string]any{"type": "string"},
						},
						"correctAnswer": map[string]any{
							"type":        "string",
							"description": "The text of the correct option, repeated exactly",
						},
					},
					"required":             []string{"question", "options", "correctAnswer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"passage", "questions"},
		"additionalProperties": false,
	},
}

// GradeSchema is the response schema for answer grading.
var GradeSchema = &llm.Schema{
	Name:        "answer-grade",
	Description: "A judgement of one answer with bilingual explanations",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{
				"type": "boolean",
			},
			"explanationEnglish": map[string]any{
				"type":        "string",
				"description": "Explanation in English",
			},
			"explanationArabic": map[string]any{
				"type":        "string",
				"description": "The same explanation in Arabic",
			},
		},
		"required":             []string{"isCorrect", "explanationEnglish", "explanationArabic"},
		"additionalProperties": false,
	},
}
