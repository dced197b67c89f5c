// Package prompt assembles the conversations sent for each statai command.
//
// Variable lists and summary text are embedded verbatim. Nothing is escaped
// or filtered, so a crafted variable label reaches the model unchanged.
package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/germanamz/statai/pkg/chats/chat"
	"github.com/germanamz/statai/pkg/chats/message"
	"github.com/germanamz/statai/pkg/summary"
)

// Sampling holds the request parameters that differ between commands.
type Sampling struct {
	Temperature float64
	MaxTokens   int // 0 leaves the limit to the provider.
}

var (
	// AnalysisSampling is used by the analyze command.
	AnalysisSampling = Sampling{Temperature: 0.3, MaxTokens: 2000}
	// InterpretationSampling is used by the interpret command.
	InterpretationSampling = Sampling{Temperature: 0.3, MaxTokens: 2000}
	// ChatSampling is used by the chat command.
	ChatSampling = Sampling{Temperature: 0.7}
)

const (
	specificSystem = "You are a Stata expert. Provide comprehensive analysis with clear explanations and well-commented code."
	generalSystem  = "You are a Stata expert. Analyze the variable types and suggest comprehensive statistical analysis with explanations."
	apaSystem      = "You are a statistical analysis expert specializing in APA-style interpretation of data."
)

const specificTemplate = `You are a Stata statistical analysis expert. I have a dataset with the following variables:

%s

User's specific analysis request: %s

Please provide detailed Stata commands and explanations for this analysis. Include:
1. Appropriate statistical methods
2. Data preparation steps if needed
3. Clear commenting (using * or //) 
4. Interpretation guidance

Format your response with both commands and explanations.`

const generalTemplate = `You are a Stata statistical analysis expert. I have a dataset with the following variables:

%s

Based on these variables, please suggest appropriate statistical analyses. Consider:
- Descriptive statistics for all variables
- Appropriate visualizations  
- Correlation analysis where relevant
- Basic inferential tests if applicable

Provide detailed Stata commands with explanations and comments.`

const interpretationTemplate = `You are a statistical analysis expert. Please provide an APA-style interpretation of the following summary statistics:

Variable Information:
%s

Summary Statistics:
%s

Please provide:
1. A clear, concise interpretation of the descriptive statistics
2. Focus on the key patterns and relationships between variables
3. Use APA style formatting
4. Include any notable observations about the data distribution
5. Keep the interpretation professional and academic

Format your response in clear paragraphs with proper APA style.`

// generalInstructions select the general template.
var generalInstructions = []string{"", "analyze", "general"}

// IsGeneral reports whether instruction asks for general suggestions rather
// than a specific analysis. Matching ignores case and surrounding space.
func IsGeneral(instruction string) bool {
	return slices.Contains(generalInstructions, strings.ToLower(strings.TrimSpace(instruction)))
}

// Analysis builds the analyze conversation for the given variable
// descriptors. A general instruction selects the suggestion template.
func Analysis(instruction string, variables []string) *chat.Chat {
	vars := strings.Join(variables, "\n")

	if IsGeneral(instruction) {
		return chat.New(
			message.System(generalSystem),
			message.User(fmt.Sprintf(generalTemplate, vars)),
		)
	}

	return chat.New(
		message.System(specificSystem),
		message.User(fmt.Sprintf(specificTemplate, vars, instruction)),
	)
}

// Interpretation builds the APA interpretation conversation.
func Interpretation(varInfo string, records []summary.Record) *chat.Chat {
	stats := strings.Join(summary.Lines(records), "\n")

	return chat.New(
		message.System(apaSystem),
		message.User(fmt.Sprintf(interpretationTemplate, varInfo, stats)),
	)
}

// Chat wraps a single user message.
func Chat(text string) *chat.Chat {
	return chat.New(message.User(text))
}
