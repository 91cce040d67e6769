// Package prompt turns raw user input into the prompts sent to the LLM.
// Every builder is deterministic string templating with no side effects.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vedpatil1345/codetalk/internal/model/prompt"
)

// ErrMissingField reports that a required input was empty.
var ErrMissingField = errors.New("required field is empty")

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, ErrMissingField)
}

func (e *ValidationError) Unwrap() error {
	return ErrMissingField
}

// Require returns a ValidationError for the first blank field, in argument order.
// Arguments alternate between field name and value.
func Require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &ValidationError{Field: pairs[i]}
		}
	}
	return nil
}

// Names of the code analysis cards, in display order.
const (
	Explanation    = "Explanation"
	Requirements   = "Requirements"
	ErrorDetection = "Error Detection"
	Improvements   = "Improvements"
)

// Names of the error analysis cards, in display order.
const (
	ErrorExplanation = "Explanation"
	Solution         = "Solution"
	Pitfalls         = "Pitfalls"
	Resources        = "Resources"
)

// BuildAnalysisPrompts returns the four code analysis prompts for code written in language.
func BuildAnalysisPrompts(code, language string) []prompt.Prompt {
	return []prompt.Prompt{
		{
			Name: Explanation,
			Query: fmt.Sprintf(`Explain this %s code in detail:

%s

Focus on:
1. Overall purpose
2. Key components
3. Logic flow
4. Important functions/methods`, language, code),
		},
		{
			Name: Requirements,
			Query: fmt.Sprintf(`List requirements for running this %s code:

%s

Include:
1. Dependencies
2. Environment setup
3. System requirements
4. Prerequisites`, language, code),
		},
		{
			Name: ErrorDetection,
			Query: fmt.Sprintf(`Analyze this %s code for potential errors:

%s

Consider:
1. Syntax errors
2. Logic errors
3. Common pitfalls
4. Edge cases`, language, code),
		},
		{
			Name: Improvements,
			Query: fmt.Sprintf(`Suggest improvements for this %s code:

%s

Focus on:
1. Performance
2. Readability
3. Best practices
4. Security`, language, code),
		},
	}
}

// BuildErrorPrompts returns the four error analysis prompts. codeContext may be empty.
func BuildErrorPrompts(errorText, codeContext string) []prompt.Prompt {
	return []prompt.Prompt{
		{
			Name: ErrorExplanation,
			Query: fmt.Sprintf(`Explain this error message in detail:

%s

Code Context:
%s

Provide:
1. What the error means
2. Specific cause
3. Programming concept explanation`, errorText, codeContext),
		},
		{
			Name: Solution,
			Query: fmt.Sprintf(`Provide step-by-step solutions for this error:

%s

Code Context:
%s

Include:
1. Immediate fix steps
2. Alternative approaches
3. Verification methods`, errorText, codeContext),
		},
		{
			Name: Pitfalls,
			Query: fmt.Sprintf(`Identify common pitfalls related to this error:

%s

Code Context:
%s

List:
1. Common mistake patterns
2. Similar error traps
3. Prevention strategies`, errorText, codeContext),
		},
		{
			Name: Resources,
			Query: fmt.Sprintf(`Recommend learning resources about this error:

%s

Code Context:
%s

Suggest:
1. Documentation links
2. Tutorial references
3. Related learning paths`, errorText, codeContext),
		},
	}
}

// BuildTranslatePrompt asks for code to be rewritten in targetLanguage.
func BuildTranslatePrompt(code, targetLanguage string) prompt.Prompt {
	return prompt.Prompt{
		Name:  "Translation",
		Query: fmt.Sprintf("Translate the following code into %s:\n\n%s\n\n", targetLanguage, code),
	}
}

// BuildChatPrompt wraps a free-form chat message in the coding assistant framing.
func BuildChatPrompt(message string) prompt.Prompt {
	return prompt.Prompt{
		Name:  "Chat",
		Query: "Respond as a coding assistant and provide clear and detailed assistance based on the following input: " + message,
	}
}

// BuildCodeChatPrompt asks a question about previously analysed code.
func BuildCodeChatPrompt(code, question string) prompt.Prompt {
	return prompt.Prompt{
		Name:  "Code Chat",
		Query: fmt.Sprintf("Given this code:\n\n%s\n\nUser question: %s\nResponse:", code, question),
	}
}

// Platforms accepted by BuildImagePrompt, keyed by value with their display label.
var Platforms = map[string]string{
	"html":    "HTML/CSS",
	"react":   "React",
	"flutter": "Flutter",
	"nextjs":  "Next.js",
}

// BuildImagePrompt returns the instruction sent alongside an uploaded image.
func BuildImagePrompt(platform string) prompt.Prompt {
	return prompt.Prompt{
		Name:  "Image to Code",
		Query: fmt.Sprintf("Generate %s code for this image.", strings.ToUpper(platform)),
	}
}
