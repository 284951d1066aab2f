// Package caldav reads and books events on CalDAV servers such as iCloud,
// Fastmail and Nextcloud.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

const productID = "-//slotwise//Meeting Scheduler//EN"

// Backend implements the calendar backend port over CalDAV.
type Backend struct {
	baseURL  string
	username string
	password string // app-specific password for iCloud
	logger   *slog.Logger
	location *time.Location
	newUID   func() string

	mu           sync.Mutex
	calendarPath string // discovered lazily when empty
}

// NewBackend creates a CalDAV backend.
func NewBackend(baseURL, username, password string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
		location: time.Local,
		newUID:   func() string { return uuid.NewString() },
	}
}

// WithCalendarPath pins the calendar collection instead of discovering it.
func (b *Backend) WithCalendarPath(path string) *Backend {
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	b.calendarPath = path
	return b
}

// WithLocation sets the timezone floating and all-day times are read in.
func (b *Backend) WithLocation(loc *time.Location) *Backend {
	if loc != nil {
		b.location = loc
	}
	return b
}

func (b *Backend) client() (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, b.username, b.password), b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}
	return client, nil
}

// resolveCalendar returns the configured collection, or the first calendar
// under the principal's home set. The result is remembered.
func (b *Backend) resolveCalendar(ctx context.Context, client *caldav.Client) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calendarPath != "" {
		return b.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: find principal: %v", domain.ErrBackendUnavailable, err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("%w: find calendar home set: %v", domain.ErrBackendUnavailable, err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("%w: find calendars: %v", domain.ErrBackendUnavailable, err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("%w: no calendars found", domain.ErrMalformedResponse)
	}

	b.calendarPath = cals[0].Path
	b.logger.Debug("caldav calendar discovered", "path", b.calendarPath)
	return b.calendarPath, nil
}

// ListEvents queries VEVENTs overlapping [start, end).
func (b *Backend) ListEvents(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	client, err := b.client()
	if err != nil {
		return nil, err
	}
	calPath, err := b.resolveCalendar(ctx, client)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{{
				Name:  "VEVENT",
				Props: []string{"SUMMARY", "DTSTART", "DTEND", "DURATION", "UID", "STATUS", "TRANSP", "URL"},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query calendar: %v", domain.ErrBackendUnavailable, err)
	}

	events := make([]domain.Event, 0, len(objects))
	for i := range objects {
		events = append(events, b.parseObject(&objects[i])...)
	}
	return events, nil
}

// parseObject extracts the busy VEVENTs of one calendar object. Cancelled
// and transparent events do not block time.
func (b *Backend) parseObject(obj *caldav.CalendarObject) []domain.Event {
	if obj == nil || obj.Data == nil {
		return nil
	}

	var events []domain.Event
	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if strings.EqualFold(propText(child, ical.PropStatus), "CANCELLED") ||
			strings.EqualFold(propText(child, "TRANSP"), "TRANSPARENT") {
			continue
		}

		vevent := &ical.Event{Component: child}
		start, err := vevent.DateTimeStart(b.location)
		if err != nil {
			b.logger.Debug("skipping caldav event without DTSTART", "path", obj.Path, "error", err)
			continue
		}

		allDay := false
		if prop := child.Props.Get(ical.PropDateTimeStart); prop != nil && prop.ValueType() == ical.ValueDate {
			allDay = true
		}

		end, err := vevent.DateTimeEnd(b.location)
		if err != nil || end.IsZero() {
			end = start
			if allDay {
				end = start.AddDate(0, 0, 1)
			}
		}

		id := propText(child, ical.PropUID)
		if id == "" {
			id = obj.Path
		}
		events = append(events, domain.Event{
			ID:      id,
			Summary: propText(child, ical.PropSummary),
			Start:   start.In(b.location),
			End:     end.In(b.location),
			AllDay:  allDay,
			Link:    propText(child, "URL"),
		})
	}
	return events
}

func propText(comp *ical.Component, name string) string {
	if props := comp.Props[name]; len(props) > 0 {
		return props[0].Value
	}
	return ""
}

// CreateEvent stores a new VEVENT as its own calendar object.
func (b *Backend) CreateEvent(ctx context.Context, event domain.NewEvent) (domain.EventReference, error) {
	client, err := b.client()
	if err != nil {
		return domain.EventReference{}, err
	}
	calPath, err := b.resolveCalendar(ctx, client)
	if err != nil {
		return domain.EventReference{}, err
	}

	uid := b.newUID()
	objectPath := calPath + uid + ".ics"
	if _, err := client.PutCalendarObject(ctx, objectPath, toICalendar(uid, event, time.Now())); err != nil {
		return domain.EventReference{}, fmt.Errorf("%w: put calendar object: %v", domain.ErrBackendUnavailable, err)
	}
	return domain.EventReference{ID: uid, Link: objectPath}, nil
}

// toICalendar builds a VCALENDAR holding one timed VEVENT in UTC.
func toICalendar(uid string, event domain.NewEvent, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	vevent.Props.SetText(ical.PropSummary, event.Summary)

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}
