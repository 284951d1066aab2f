// Package extraction pulls scheduling parameters out of free-form utterances
// with a local language model served by Ollama.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

// ErrMalformedResponse is returned when the model answers with something that
// is not the requested JSON object.
var ErrMalformedResponse = errors.New("malformed extraction response")

// dependencyName identifies the model in breaker stats.
const dependencyName = "llm"

// Intent is what the user wants to do.
type Intent string

const (
	IntentSchedule Intent = "schedule"
	IntentQuery    Intent = "query"
	IntentCancel   Intent = "cancel"
)

// IsValid returns true if the intent is a known value.
func (i Intent) IsValid() bool {
	switch i {
	case IntentSchedule, IntentQuery, IntentCancel:
		return true
	default:
		return false
	}
}

// Parameters are the scheduling details found in one utterance. Empty strings
// and a zero duration mean the detail was not mentioned.
type Parameters struct {
	Summary         string `json:"summary,omitempty"`
	Date            string `json:"date,omitempty"`
	TimeRange       string `json:"time_range,omitempty"`
	DurationMinutes int    `json:"duration,omitempty"`
	Intent          Intent `json:"intent"`
	// Fallback is set when the model could not be used.
	Fallback bool `json:"-"`
}

// Fallback treats the whole utterance as a date query.
func Fallback(utterance string) Parameters {
	return Parameters{Intent: IntentQuery, Date: utterance, Fallback: true}
}

// Config configures the Ollama client.
type Config struct {
	Enabled     bool
	URL         string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client calls the model and never fails: any error yields Fallback.
type Client struct {
	config     Config
	httpClient *http.Client
	guard      *resilience.Guard
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client. guard may be nil.
func NewClient(config Config, guard *resilience.Guard, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	if config.Model == "" {
		config.Model = "llama3"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{},
		guard:      guard,
		metrics:    observability.NoopMetrics{},
		logger:     logger,
	}
}

// WithMetrics counts extraction calls by outcome.
func (c *Client) WithMetrics(metrics observability.Metrics) *Client {
	if metrics != nil {
		c.metrics = metrics
	}
	return c
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Format  string          `json:"format"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

const promptTemplate = `You are an expert calendar assistant. Extract meeting parameters from:
%q

Focus on the event summary, the date (handle formats like 'twenty fourth june') and the time or duration.

Return JSON with:
- "summary": string or null
- "date": string (natural language date)
- "time_range": string
- "duration": integer minutes or null
- "intent": "schedule", "query" or "cancel"`

// ExtractParameters asks the model for the parameters in utterance.
func (c *Client) ExtractParameters(ctx context.Context, utterance string) Parameters {
	if !c.config.Enabled || c.config.URL == "" {
		c.metrics.Counter(observability.MetricExtractions, 1, observability.T("outcome", "disabled"))
		return Fallback(utterance)
	}

	raw, err := c.generate(ctx, utterance)
	if err == nil {
		var params Parameters
		params, err = decodeParameters(raw)
		if err == nil {
			c.metrics.Counter(observability.MetricExtractions, 1, observability.T("outcome", "model"))
			return params
		}
	}

	c.metrics.Counter(observability.MetricExtractions, 1, observability.T("outcome", "fallback"))
	c.logger.WarnContext(ctx, "parameter extraction failed, using fallback", "error", err)
	return Fallback(utterance)
}

func (c *Client) generate(ctx context.Context, utterance string) (string, error) {
	call := func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
		return c.post(ctx, utterance)
	}

	var (
		result any
		err    error
	)
	if c.guard != nil {
		result, err = c.guard.Do(ctx, dependencyName, "extract_parameters", call)
	} else {
		result, err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	raw, _ := result.(string)
	return raw, nil
}

func (c *Client) post(ctx context.Context, utterance string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.config.Model,
		Prompt: fmt.Sprintf(promptTemplate, utterance),
		Format: "json",
		Options: generateOptions{
			Temperature: c.config.Temperature,
			NumPredict:  100,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.Response, nil
}

type rawParameters struct {
	Summary   *string         `json:"summary"`
	Date      *string         `json:"date"`
	TimeRange *string         `json:"time_range"`
	Duration  json.RawMessage `json:"duration"`
	Intent    string          `json:"intent"`
}

// decodeParameters reads the JSON object the model produced. Models are loose
// with types, so duration may arrive as a number or a numeric string.
func decodeParameters(raw string) (Parameters, error) {
	var in rawParameters
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return Parameters{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	params := Parameters{
		Summary:   deref(in.Summary),
		Date:      deref(in.Date),
		TimeRange: deref(in.TimeRange),
		Intent:    Intent(strings.ToLower(strings.TrimSpace(in.Intent))),
	}
	if !params.Intent.IsValid() {
		return Parameters{}, fmt.Errorf("%w: unknown intent %q", ErrMalformedResponse, in.Intent)
	}
	params.DurationMinutes = parseDuration(in.Duration)
	return params, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func parseDuration(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// Ping checks that the Ollama server answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	if !c.config.Enabled || c.config.URL == "" {
		return errors.New("language model disabled")
	}
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return err
	}
	u.Path = "/"
	u.RawQuery = ""

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("model server returned %d", resp.StatusCode)
	}
	return nil
}
