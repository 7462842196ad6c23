// Package llm adapts hosted language models into a department oracle.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable reports that the oracle could not produce an answer.
var ErrUnavailable = errors.New("classifier unavailable")

// Oracle suggests a department name for free text. Answers are free-form and
// must be reconciled against the registry by the caller.
type Oracle interface {
	Suggest(ctx context.Context, text string, departments []string) (string, error)
}

// OracleFunc adapts a function into an Oracle.
type OracleFunc func(ctx context.Context, text string, departments []string) (string, error)

// Suggest calls f.
func (f OracleFunc) Suggest(ctx context.Context, text string, departments []string) (string, error) {
	return f(ctx, text, departments)
}

// Disabled is an Oracle that always reports ErrUnavailable.
var Disabled Oracle = OracleFunc(func(context.Context, string, []string) (string, error) {
	return "", ErrUnavailable
})

// BuildPrompt renders the classification instruction for text.
func BuildPrompt(text string, departments []string) string {
	var b strings.Builder
	b.WriteString("You are a classifier that maps petitions to the correct Tamil Nadu government department. ")
	b.WriteString("Based on the petition text below, return only the single most appropriate department name from this list. ")
	b.WriteString("If unsure, pick the closest match from the list. ")
	b.WriteString("Never return 'General', 'Unknown', or anything not in the list.\n\n")
	b.WriteString("Departments:\n")
	for _, d := range departments {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nPetition: '%s'\nDepartment:", text)
	return b.String()
}

// CleanAnswer strips quoting and list markers a model may wrap around its answer.
func CleanAnswer(raw string) string {
	answer := strings.TrimSpace(raw)
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = answer[:i]
	}
	answer = strings.TrimLeft(answer, "-* ")
	answer = strings.Trim(answer, "\"'`. ")
	return strings.TrimSpace(answer)
}
