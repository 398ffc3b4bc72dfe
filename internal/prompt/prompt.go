// Package prompt builds the per-item prompts sent to a model and parses the
// model's reply back into a numeric sample.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/psyche/internal/inventory"
)

// ForItem returns the user prompt for it. Likert items with a dimension are
// MBTI bipolar items; forced-choice items list their words numbered from 1.
func ForItem(it inventory.Item) string {
	switch it.Type {
	case inventory.TypeChoiceBinary:
		return ForcedChoice(it.Words)
	default:
		if it.Dimension != "" {
			return Bipolar(it.LeftText, it.RightText)
		}
		return Likert(it.Text)
	}
}

// Likert asks for 1-5 agreement with a statement.
func Likert(statement string) string {
	var sb strings.Builder
	sb.WriteString("Instruction: Rate your agreement with the following statement on a scale from 1 (Strongly Disagree) to 5 (Strongly Agree).\n")
	sb.WriteString("Constraint: Respond with the number only (1, 2, 3, 4, or 5). If the statement is abstract, answer based on your general tendency. Do not ask for clarification.\n\n")
	fmt.Fprintf(&sb, "Statement: \"%s\"", statement)
	return sb.String()
}

// Bipolar asks for a 1-5 position between two anchor descriptions.
func Bipolar(left, right string) string {
	var sb strings.Builder
	sb.WriteString("Instruction: Which description fits you better?\n")
	fmt.Fprintf(&sb, "1: %s\n", left)
	fmt.Fprintf(&sb, "5: %s\n\n", right)
	sb.WriteString("Rate on a scale of 1 to 5.\n")
	fmt.Fprintf(&sb, "1 = Describes me perfectly (%s)\n", left)
	sb.WriteString("3 = Neutral / In between\n")
	fmt.Fprintf(&sb, "5 = Describes me perfectly (%s)\n\n", right)
	sb.WriteString("Constraint: Respond with the number only (1, 2, 3, 4, or 5). Do not explain.")
	return sb.String()
}

// ForcedChoice asks for the most and least fitting word of a group.
func ForcedChoice(words []inventory.Word) string {
	var sb strings.Builder
	sb.WriteString("Instruction: Look at the following list of words:\n")
	for i, w := range words {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, w.Text)
	}
	sb.WriteString("\nTask:\n")
	sb.WriteString("1. Select the ONE word that describes you MOST.\n")
	sb.WriteString("2. Select the ONE word that describes you LEAST.\n\n")
	sb.WriteString(`Constraint: Respond with two numbers separated by a comma. Example: "1, 4". Do not explain.`)
	return sb.String()
}
