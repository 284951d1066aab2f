// Package google reads and books events on Google Calendar through the v3 REST API.
package google

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
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

type tokenSourceProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// Backend implements the calendar backend port for Google Calendar.
type Backend struct {
	tokens     tokenSourceProvider
	logger     *slog.Logger
	baseURL    string
	calendarID string
	location   *time.Location
}

// NewBackend creates a Google Calendar backend.
func NewBackend(tokens tokenSourceProvider, logger *slog.Logger) *Backend {
	return NewBackendWithBaseURL(tokens, logger, defaultBaseURL)
}

// NewBackendWithBaseURL creates a Google Calendar backend with a custom base URL.
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

// WithCalendarID sets the calendar to read and book into.
func (b *Backend) WithCalendarID(calendarID string) *Backend {
	if calendarID != "" {
		b.calendarID = calendarID
	}
	return b
}

// WithLocation sets the timezone all-day dates are interpreted in.
func (b *Backend) WithLocation(loc *time.Location) *Backend {
	if loc != nil {
		b.location = loc
	}
	return b
}

func (b *Backend) client(ctx context.Context) (*http.Client, error) {
	if b.tokens == nil {
		return nil, fmt.Errorf("%w: oauth not configured", domain.ErrNotAuthenticated)
	}
	source, err := b.tokens.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	token, err := source.Token()
	if err != nil {
		b.logger.Warn("oauth token refresh failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	if !token.Expiry.IsZero() && time.Until(token.Expiry) < 5*time.Minute {
		b.logger.Debug("oauth token nearing expiry", "expires_at", token.Expiry)
	}
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: source,
		},
	}, nil
}

type eventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventItem struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Status   string    `json:"status"`
	HTMLLink string    `json:"htmlLink"`
	Start    eventTime `json:"start"`
	End      eventTime `json:"end"`
}

type eventList struct {
	Items         []eventItem `json:"items"`
	NextPageToken string      `json:"nextPageToken"`
}

// ListEvents returns single (expanded) events overlapping [start, end),
// following pagination. Cancelled events are skipped.
func (b *Backend) ListEvents(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	client, err := b.client(ctx)
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("timeMin", start.UTC().Format(time.RFC3339))
		query.Set("timeMax", end.UTC().Format(time.RFC3339))
		query.Set("singleEvents", "true")
		query.Set("orderBy", "startTime")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		listURL := fmt.Sprintf("%s/calendars/%s/events?%s", b.baseURL, url.PathEscape(b.calendarID), query.Encode())

		var page eventList
		if err := b.do(ctx, client, http.MethodGet, listURL, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			event, ok := b.toEvent(item)
			if !ok {
				b.logger.Debug("skipping event without usable times", "event_id", item.ID)
				continue
			}
			events = append(events, event)
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (b *Backend) toEvent(item eventItem) (domain.Event, bool) {
	event := domain.Event{
		ID:      item.ID,
		Summary: item.Summary,
		Link:    item.HTMLLink,
	}
	switch {
	case item.Start.DateTime != "" && item.End.DateTime != "":
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return domain.Event{}, false
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return domain.Event{}, false
		}
		event.Start, event.End = start.In(b.location), end.In(b.location)
	case item.Start.Date != "" && item.End.Date != "":
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, b.location)
		if err != nil {
			return domain.Event{}, false
		}
		end, err := time.ParseInLocation("2006-01-02", item.End.Date, b.location)
		if err != nil {
			return domain.Event{}, false
		}
		event.Start, event.End, event.AllDay = start, end, true
	default:
		return domain.Event{}, false
	}
	return event, true
}

// CreateEvent inserts a timed event.
func (b *Backend) CreateEvent(ctx context.Context, event domain.NewEvent) (domain.EventReference, error) {
	client, err := b.client(ctx)
	if err != nil {
		return domain.EventReference{}, err
	}

	payload := struct {
		Summary string    `json:"summary"`
		Start   eventTime `json:"start"`
		End     eventTime `json:"end"`
	}{
		Summary: event.Summary,
		Start:   eventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: event.TimeZone},
		End:     eventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: event.TimeZone},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.EventReference{}, err
	}

	insertURL := fmt.Sprintf("%s/calendars/%s/events", b.baseURL, url.PathEscape(b.calendarID))
	var created eventItem
	if err := b.do(ctx, client, http.MethodPost, insertURL, body, &created); err != nil {
		return domain.EventReference{}, err
	}
	if created.ID == "" {
		return domain.EventReference{}, fmt.Errorf("%w: created event has no id", domain.ErrMalformedResponse)
	}
	return domain.EventReference{ID: created.ID, Link: created.HTMLLink}, nil
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		var authErr *oauth2.RetrieveError
		if errors.As(err, &authErr) {
			return fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
		}
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
	err := fmt.Errorf("google calendar request failed: status=%d body=%s", resp.StatusCode, string(body))
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
