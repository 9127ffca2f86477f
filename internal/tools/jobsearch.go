package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	jobSearchName     = "search_care_jobs"
	jobSearchEndpoint = "https://api.perplexity.ai/chat/completions"
	jobSearchModel    = "sonar"
	jobSearchTimeout  = 25 * time.Second

	jobSearchMaxTokens   = 500
	jobSearchTemperature = 0.7

	jobSearchApology = "Sorry, I couldn't fetch job listings right now: "

	maxUpstreamBodyLen = 1 << 20
	maxErrorExcerptLen = 512
)

const jobSearchSystemPrompt = "You are a helpful assistant that searches Care.com for caregiver job postings. " +
	"Answer with plain text only, no markdown."

const jobSearchUserPrompt = `Search care.com for caregiver job postings near %s. ` +
	`Return exactly 3 listings as a numbered list. For each listing include exactly these five fields on separate lines: ` +
	`Job title, Location, Hours, Salary, URL. If you cannot find a URL for a listing, write "URL not available" for that field.`

// JobSearchTool asks the Perplexity search API for caregiver job postings
// near a free-text location. One bounded request per call: no retries, no
// caching, and the listing text comes back exactly as the model wrote it.
type JobSearchTool struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

// NewJobSearchTool builds the tool around a Perplexity API key. The key is
// captured here once; it is never re-read from configuration per call.
func NewJobSearchTool(apiKey string) *JobSearchTool {
	return &JobSearchTool{
		apiKey:   apiKey,
		endpoint: jobSearchEndpoint,
		timeout:  jobSearchTimeout,
		client:   &http.Client{},
	}
}

func (t *JobSearchTool) Name() string { return jobSearchName }

func (t *JobSearchTool) Description() string {
	return "Search Care.com for caregiver job postings near a location"
}

func (t *JobSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"location": {"type": "string", "description": "City or area to search for caregiver jobs in"}
		},
		"required": ["location"]
	}`)
}

// Execute never returns a non-nil error. Every failure mode — timeout,
// transport fault, upstream HTTP error, malformed response body — is logged
// and folded into an apology message, so the runtime always receives a
// normal result.
func (t *JobSearchTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	listings, err := t.search(ctx, params)
	if err != nil {
		slog.Error("care job search failed", "tool", jobSearchName, "error", err)
		return jobSearchApology + err.Error(), nil
	}
	return listings, nil
}

// search performs the single upstream round trip under the tool deadline.
func (t *JobSearchTool) search(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Location == "" {
		return "", errors.New("location is required")
	}

	body, err := json.Marshal(map[string]any{
		"model": jobSearchModel,
		"messages": []map[string]string{
			{"role": "system", "content": jobSearchSystemPrompt},
			{"role": "user", "content": fmt.Sprintf(jobSearchUserPrompt, p.Location)},
		},
		"max_tokens":  jobSearchMaxTokens,
		"temperature": jobSearchTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// Name the configured duration only when it was this tool's own
		// deadline that fired, not one inherited from the caller.
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			return "", fmt.Errorf("request timed out after %d ms", t.timeout.Milliseconds())
		}
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("upstream returned %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), excerpt(data))
	}

	// Absent field and present-but-wrong-type both count as malformed.
	content := gjson.GetBytes(data, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		slog.Error("malformed completion response", "tool", jobSearchName, "body", string(data))
		return "", errors.New("could not extract message content from upstream response")
	}
	return content.String(), nil
}

func excerpt(body []byte) string {
	if len(body) > maxErrorExcerptLen {
		return string(body[:maxErrorExcerptLen]) + "..."
	}
	return string(body)
}
