package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const maxPostingContentLen = 100 * 1024 // 100KB

// FetchPostingTool downloads a job posting page and returns its text,
// so the model can read the full description behind a listing URL.
type FetchPostingTool struct{}

func NewFetchPostingTool() *FetchPostingTool { return &FetchPostingTool{} }

func (t *FetchPostingTool) Name() string { return "fetch_posting" }
func (t *FetchPostingTool) Description() string {
	return "Fetch a job posting URL and return its text content"
}
func (t *FetchPostingTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "Job posting URL to fetch"}
		},
		"required": ["url"]
	}`)
}

func (t *FetchPostingTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if p.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "carebot/0.1")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch posting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPostingContentLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return cleanWhitespace(stripHTML(string(body))), nil
}

// stripHTML removes HTML tags from text.
func stripHTML(html string) string {
	re := regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	html = re.ReplaceAllString(html, "")
	re = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	html = re.ReplaceAllString(html, "")
	re = regexp.MustCompile(`<[^>]*>`)
	return re.ReplaceAllString(html, " ")
}

// cleanWhitespace collapses runs of spaces and blank lines.
func cleanWhitespace(text string) string {
	re := regexp.MustCompile(`[ \t]+`)
	text = re.ReplaceAllString(text, " ")
	re = regexp.MustCompile(`\n\s*\n\s*\n+`)
	text = re.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
