package tools

import "strings"

// Content is one piece of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the uniform payload every tool invocation produces. The agent
// runtime only ever sees Results; tool failures are carried as text content,
// never as errors.
type Result struct {
	Content []Content `json:"content"`
}

// TextResult wraps a string as a Result with a single text content item.
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

// Text joins the text content items of the result.
func (r Result) Text() string {
	if len(r.Content) == 1 && r.Content[0].Type == "text" {
		return r.Content[0].Text
	}
	var parts []string
	for _, c := range r.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
