// Package prompt builds the chat messages sent upstream for selection
// explanations and reading reports.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/papercomputeco/papermind/pkg/llm"
)

const (
	// DefaultExplainContextLimit is the number of trailing document
	// characters kept when explaining a selection.
	DefaultExplainContextLimit = 15000

	// DefaultReportContextLimit is the number of trailing document
	// characters kept when generating a report.
	DefaultReportContextLimit = 30000
)

func init() {
	mustache.AllowMissingVariables = false
}

//go:embed prompts/*.mustache
var promptsFS embed.FS

var (
	explainSystem = mustParse("explain_system")
	explainUser   = mustParse("explain_user")
	reportSystem  = mustParse("report_system")
	reportUser    = mustParse("report_user")
	noteTemplate  = mustParse("note")
)

func mustParse(name string) *mustache.Template {
	data, err := promptsFS.ReadFile(fmt.Sprintf("prompts/%s.mustache", name))
	if err != nil {
		panic(err)
	}

	t, err := mustache.ParseString(string(data))
	if err != nil {
		panic(fmt.Errorf("parsing prompt %s: %w", name, err))
	}
	return t
}

// render panics on failure. Every template is rendered with a fixed set of
// keys, so an error here is a broken template rather than bad input.
func render(t *mustache.Template, data map[string]any) string {
	out, err := t.Render(data)
	if err != nil {
		panic(err)
	}
	return out
}

// Explanation returns the messages asking the model to explain selection in
// light of the preceding document context. Only the last limit characters
// of context are sent; a non-positive limit uses DefaultExplainContextLimit.
func Explanation(context, selection string, limit int) []llm.Message {
	if limit <= 0 {
		limit = DefaultExplainContextLimit
	}

	user := render(explainUser, map[string]any{
		"context":   TruncateContext(context, limit),
		"selection": selection,
	})

	return []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, render(explainSystem, nil)),
		llm.NewTextMessage(llm.RoleUser, user),
	}
}

// Report returns the messages asking the model for a reading report built
// from the document context and the user's notes. A non-positive limit uses
// DefaultReportContextLimit.
func Report(context string, notes []Note, limit int) []llm.Message {
	if limit <= 0 {
		limit = DefaultReportContextLimit
	}

	user := render(reportUser, map[string]any{
		"context": TruncateContext(context, limit),
		"notes":   FormatNotes(notes),
	})

	return []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, render(reportSystem, nil)),
		llm.NewTextMessage(llm.RoleUser, user),
	}
}

// FormatNotes renders notes as a numbered list separated by blank lines.
func FormatNotes(notes []Note) string {
	rendered := make([]string, len(notes))
	for i, n := range notes {
		rendered[i] = render(noteTemplate, map[string]any{
			"index":       i + 1,
			"text":        n.Text,
			"page":        n.Page,
			"explanation": strings.TrimSpace(n.Explanation),
		})
	}
	return strings.Join(rendered, "\n\n")
}

// TruncateContext keeps the trailing max characters of text. Characters are
// counted as runes so multibyte text is never cut mid-sequence.
func TruncateContext(text string, max int) string {
	if max <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[len(runes)-max:])
}
