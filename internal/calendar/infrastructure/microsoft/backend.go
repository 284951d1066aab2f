// Package microsoft reads and books events on Outlook calendars through Microsoft Graph.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// graphLayout is the local date-time format Graph uses inside dateTimeTimeZone.
const graphLayout = "2006-01-02T15:04:05.0000000"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Backend implements the calendar backend port for Microsoft Graph.
type Backend struct {
	tokens     tokenSourceProvider
	logger     *slog.Logger
	baseURL    string
	calendarID string
	location   *time.Location
}

// NewBackend creates a Microsoft Graph backend.
func NewBackend(tokens tokenSourceProvider, logger *slog.Logger) *Backend {
	return NewBackendWithBaseURL(tokens, logger, defaultBaseURL)
}

// NewBackendWithBaseURL creates a Microsoft Graph backend with a custom base URL.
func NewBackendWithBaseURL(tokens tokenSourceProvider, logger *slog.Logger, baseURL string) *Backend {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		tokens:     tokens,
		logger:     logger,
		baseURL:    baseURL,
		calendarID: "primary",
		location:   time.Local,
	}
}

// WithCalendarID selects a calendar other than the default one.
func (b *Backend) WithCalendarID(calendarID string) *Backend {
	if calendarID != "" {
		b.calendarID = calendarID
	}
	return b
}

// WithLocation sets the timezone results are converted to.
func (b *Backend) WithLocation(loc *time.Location) *Backend {
	if loc != nil {
		b.location = loc
	}
	return b
}

func (b *Backend) calendarPath() string {
	if b.calendarID == "primary" || b.calendarID == "" {
		return b.baseURL + "/me"
	}
	return fmt.Sprintf("%s/me/calendars/%s", b.baseURL, url.PathEscape(b.calendarID))
}

func (b *Backend) httpClient(ctx context.Context) (*http.Client, error) {
	if b.tokens == nil {
		return nil, fmt.Errorf("%w: oauth not configured", domain.ErrNotAuthenticated)
	}
	source, err := b.tokens.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	if _, err := source.Token(); err != nil {
		b.logger.Warn("oauth token refresh failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: source,
		},
	}, nil
}

type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msEvent struct {
	ID          string     `json:"id,omitempty"`
	Subject     string     `json:"subject"`
	Start       msDateTime `json:"start"`
	End         msDateTime `json:"end"`
	IsAllDay    bool       `json:"isAllDay,omitempty"`
	IsCancelled bool       `json:"isCancelled,omitempty"`
	ShowAs      string     `json:"showAs,omitempty"`
	WebLink     string     `json:"webLink,omitempty"`
}

// ListEvents reads the calendar view for [start, end), which expands
// recurring series. Events marked free or cancelled are skipped.
func (b *Backend) ListEvents(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	client, err := b.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("startDateTime", start.UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("endDateTime", end.UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("$orderby", "start/dateTime")
	params.Set("$top", "100")
	next := fmt.Sprintf("%s/calendarView?%s", b.calendarPath(), params.Encode())

	var events []domain.Event
	for next != "" {
		var page struct {
			Value    []msEvent `json:"value"`
			NextLink string    `json:"@odata.nextLink"`
		}
		if err := b.do(ctx, client, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Value {
			if item.IsCancelled || item.ShowAs == "free" {
				continue
			}
			event, err := b.toEvent(item)
			if err != nil {
				b.logger.Debug("skipping event with unparseable times", "event_id", item.ID, "error", err)
				continue
			}
			events = append(events, event)
		}
		next = page.NextLink
	}
	return events, nil
}

func (b *Backend) toEvent(item msEvent) (domain.Event, error) {
	start, err := parseGraphTime(item.Start.DateTime)
	if err != nil {
		return domain.Event{}, err
	}
	end, err := parseGraphTime(item.End.DateTime)
	if err != nil {
		return domain.Event{}, err
	}
	event := domain.Event{
		ID:      item.ID,
		Summary: item.Subject,
		Link:    item.WebLink,
		AllDay:  item.IsAllDay,
	}
	if item.IsAllDay {
		// All-day bounds are dates, not instants.
		event.Start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, b.location)
		event.End = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, b.location)
		return event, nil
	}
	event.Start, event.End = start.In(b.location), end.In(b.location)
	return event, nil
}

// parseGraphTime reads a UTC date-time as returned under Prefer: outlook.timezone="UTC".
func parseGraphTime(value string) (time.Time, error) {
	if t, err := time.Parse(graphLayout, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(value, "Z"))
}

// CreateEvent creates a timed event in the calendar.
func (b *Backend) CreateEvent(ctx context.Context, event domain.NewEvent) (domain.EventReference, error) {
	client, err := b.httpClient(ctx)
	if err != nil {
		return domain.EventReference{}, err
	}

	body, err := json.Marshal(msEvent{
		Subject: event.Summary,
		Start:   msDateTime{DateTime: event.Start.UTC().Format("2006-01-02T15:04:05"), TimeZone: "UTC"},
		End:     msDateTime{DateTime: event.End.UTC().Format("2006-01-02T15:04:05"), TimeZone: "UTC"},
		ShowAs:  "busy",
	})
	if err != nil {
		return domain.EventReference{}, err
	}

	var created msEvent
	if err := b.do(ctx, client, http.MethodPost, b.calendarPath()+"/events", body, &created); err != nil {
		return domain.EventReference{}, err
	}
	if created.ID == "" {
		return domain.EventReference{}, fmt.Errorf("%w: created event has no id", domain.ErrMalformedResponse)
	}
	return domain.EventReference{ID: created.ID, Link: created.WebLink}, nil
}

func (b *Backend) do(ctx context.Context, client *http.Client, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := fmt.Errorf("microsoft calendar API failed: status=%d body=%s", resp.StatusCode, string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return err
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
