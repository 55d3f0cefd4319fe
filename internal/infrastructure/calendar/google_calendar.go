// Package calendar writes booking entries to a Google Calendar through its
// REST API.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appbooking "github.com/stephanos-estetic/backend/internal/application/booking"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrCalendarRequestFailed is returned for non-2xx API answers
var ErrCalendarRequestFailed = errors.New("calendar: request failed")

// GoogleCalendar inserts events with a bearer token
type GoogleCalendar struct {
	enabled     bool
	baseURL     string
	calendarID  string
	accessToken string
	timeZone    string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewGoogleCalendar creates a notifier from config. A disabled or
// incomplete config yields a notifier that reports Enabled() == false.
func NewGoogleCalendar(cfg config.CalendarConfig, logger *zap.Logger) *GoogleCalendar {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	enabled := cfg.Enabled && cfg.CalendarID != "" && cfg.AccessToken != ""
	if cfg.Enabled && !enabled {
		logger.Warn("calendar enabled without calendar_id or access_token, entries will be skipped")
	}
	return &GoogleCalendar{
		enabled:     enabled,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		calendarID:  cfg.CalendarID,
		accessToken: cfg.AccessToken,
		timeZone:    "America/Santiago",
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.Named("calendar"),
	}
}

// Enabled reports whether entries are written
func (c *GoogleCalendar) Enabled() bool {
	return c.enabled
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventBody struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// InsertEvent creates one calendar event
func (c *GoogleCalendar) InsertEvent(ctx context.Context, event appbooking.CalendarEvent) error {
	if !c.enabled {
		return nil
	}

	body, err := json.Marshal(eventBody{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: c.timeZone},
		End:         eventTime{DateTime: event.End.Format(time.RFC3339), TimeZone: c.timeZone},
	})
	if err != nil {
		return fmt.Errorf("calendar: failed to marshal event: %w", err)
	}

	endpoint := c.baseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calendar: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrCalendarRequestFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	c.logger.Debug("calendar event inserted", zap.String("summary", event.Summary))
	return nil
}

var _ appbooking.CalendarNotifier = (*GoogleCalendar)(nil)
