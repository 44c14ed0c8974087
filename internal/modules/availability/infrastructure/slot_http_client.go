package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/auth"
)

// Collaborator endpoints for reservation-hour slots. Deletions go through GET
// per the platform API contract; the paths are the backend's, not ours to redesign.
const (
	slotInfoPath         = "/secure/restaurant/slot-info/%s"
	slotCreateUpdatePath = "/secure/restaurant/slot-create-update"
	slotDeleteDayPath    = "/secure/restaurant/slot-delete/%s/%s"
	slotDeleteSinglePath = "/secure/restaurant/slot-single-delete/%s"
)

const slotStatusActive = "active"

// SlotHTTPClient implements port.SlotRepository against the platform REST API.
type SlotHTTPClient struct {
	rest    *RESTClient
	timeout time.Duration
}

func NewSlotHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *SlotHTTPClient {
	return &SlotHTTPClient{rest: NewRESTClient(baseURL, timeout, client), timeout: timeoutOrDefault(timeout)}
}

func (c *SlotHTTPClient) FetchSlots(ctx context.Context, session auth.Session, restaurantID string) (domain.WeeklyAvailability, error) {
	restaurant := strings.TrimSpace(restaurantID)
	if restaurant == "" {
		return nil, port.ErrSlotsNotFound
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	path := fmt.Sprintf(slotInfoPath, url.PathEscape(restaurant))
	res, err := c.perform(ctx, session, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, port.ErrSlotsForbidden
	case res.StatusCode == http.StatusNotFound:
		// No configured hours is a normal answer, not a failure.
		return domain.WeeklyAvailability{}, nil
	case res.StatusCode != http.StatusOK:
		return nil, c.unexpectedStatus("slot-info", res)
	}

	week, err := decodeWeeklyAvailability(res.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("slot-info fetched", slog.String("restaurantId", restaurant), slog.Int("days", len(week)))
	return week, nil
}

func (c *SlotHTTPClient) SaveSlot(ctx context.Context, session auth.Session, restaurantID string, day domain.DayOfWeek, change domain.SlotChange) (domain.SlotRecord, error) {
	restaurant := strings.TrimSpace(restaurantID)
	if restaurant == "" || !day.Valid() {
		return domain.SlotRecord{}, port.ErrSlotsNotFound
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	values := url.Values{}
	values.Set("day", string(day))
	values.Set("rest_uuid", restaurant)
	values.Set("interval_time", strconv.Itoa(domain.SlotIntervalMinutes))
	values.Set("slot_start", string(change.Range.Start))
	values.Set("slot_end", string(change.Range.End))
	values.Set("status", slotStatusActive)
	if change.IsUpdate() {
		values.Set("uuid", change.ID)
	}

	res, err := c.perform(ctx, session, http.MethodPost, slotCreateUpdatePath+"?"+values.Encode())
	if err != nil {
		return domain.SlotRecord{}, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return domain.SlotRecord{}, port.ErrSlotsForbidden
	case res.StatusCode == http.StatusNotFound:
		return domain.SlotRecord{}, port.ErrSlotsNotFound
	case res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated:
		return domain.SlotRecord{}, c.unexpectedStatus("slot-create-update", res)
	}

	record := decodeSlotRecord(res.Body)
	record.Day = day
	record.Range.Start = change.Range.Start
	record.Range.End = change.Range.End
	if record.ID == "" {
		record.ID = change.ID
	}
	record.Range.ID = record.ID
	slog.Debug("slot saved",
		slog.String("restaurantId", restaurant),
		slog.String("day", string(day)),
		slog.String("slotId", record.ID),
		slog.Bool("update", change.IsUpdate()),
	)
	return record, nil
}

func (c *SlotHTTPClient) DeleteDaySlots(ctx context.Context, session auth.Session, restaurantID string, day domain.DayOfWeek) error {
	restaurant := strings.TrimSpace(restaurantID)
	if restaurant == "" || !day.Valid() {
		return port.ErrSlotsNotFound
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	path := fmt.Sprintf(slotDeleteDayPath, url.PathEscape(restaurant), url.PathEscape(string(day)))
	return c.performDelete(ctx, session, "slot-delete", path)
}

func (c *SlotHTTPClient) DeleteSlot(ctx context.Context, session auth.Session, slotID string) error {
	slot := strings.TrimSpace(slotID)
	if slot == "" {
		return port.ErrSlotsNotFound
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	path := fmt.Sprintf(slotDeleteSinglePath, url.PathEscape(slot))
	return c.performDelete(ctx, session, "slot-single-delete", path)
}

func (c *SlotHTTPClient) performDelete(ctx context.Context, session auth.Session, operation, path string) error {
	res, err := c.perform(ctx, session, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return port.ErrSlotsForbidden
	case res.StatusCode == http.StatusNotFound:
		return port.ErrSlotsNotFound
	case res.StatusCode != http.StatusOK:
		return c.unexpectedStatus(operation, res)
	}
	return nil
}

func (c *SlotHTTPClient) perform(ctx context.Context, session auth.Session, method, endpoint string) (*http.Response, error) {
	req, err := c.rest.NewRequest(ctx, method, endpoint, nil)
	if err != nil {
		slog.Error("slot request build failed", slog.String("endpoint", endpoint), slog.Any("error", err))
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(session.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.rest.Do(req)
	if err != nil {
		slog.Error("slot request error", slog.String("endpoint", endpoint), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", port.ErrSlotsUnavailable, err)
	}
	return res, nil
}

func (c *SlotHTTPClient) unexpectedStatus(operation string, res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	slog.Error("slot request unexpected status",
		slog.String("operation", operation),
		slog.Int("status", res.StatusCode),
		slog.String("body", strings.TrimSpace(string(body))),
	)
	return fmt.Errorf("%w: %s returned %d", port.ErrSlotsUnavailable, operation, res.StatusCode)
}

func (c *SlotHTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

var _ port.SlotRepository = (*SlotHTTPClient)(nil)
