package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/application/usecase"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/auth"
	"mesaYaAvailability/internal/shared/httputil"
)

// AvailabilityHandler expone la edición semanal de horarios sobre REST.
// Every request runs a short-lived editor session against the backend so the
// response always reflects the persisted mapping.
type AvailabilityHandler struct {
	repo      port.SlotRepository
	publisher port.EventPublisher
	validator auth.TokenValidator
	overlap   domain.OverlapPolicy
	mapper    *httputil.ErrorMapper
}

func NewAvailabilityHandler(
	repo port.SlotRepository,
	publisher port.EventPublisher,
	validator auth.TokenValidator,
	overlap domain.OverlapPolicy,
) *AvailabilityHandler {
	mapper := httputil.NewErrorMapper().
		WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
		WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token").
		WithMapping(port.ErrSlotsForbidden, http.StatusForbidden, "forbidden").
		WithMapping(port.ErrSlotsNotFound, http.StatusNotFound, "restaurant slots not found").
		WithMapping(port.ErrSlotsUnavailable, http.StatusBadGateway, "availability backend unavailable").
		WithMapping(domain.ErrRangeOrder, http.StatusUnprocessableEntity, "end time must be greater than start time").
		WithMapping(domain.ErrRangeOverflow, http.StatusUnprocessableEntity, "range cannot extend past midnight").
		WithMapping(domain.ErrRangeOverlap, http.StatusUnprocessableEntity, "ranges overlap").
		WithMapping(domain.ErrRangeCapReached, http.StatusUnprocessableEntity, "too many ranges for one day").
		WithMapping(domain.ErrRangeNotPersisted, http.StatusUnprocessableEntity, "range has not been persisted").
		WithMapping(usecase.ErrAddDisabled, http.StatusConflict, "every day already has configured hours").
		WithMapping(usecase.ErrDayNotSelectable, http.StatusConflict, "day already has configured hours").
		WithMapping(usecase.ErrUnknownDay, http.StatusBadRequest, "unknown day").
		WithMapping(usecase.ErrNoDaysSelected, http.StatusBadRequest, "no days selected").
		WithMapping(usecase.ErrDayNotConfigured, http.StatusNotFound, "day has no configured hours").
		WithMapping(usecase.ErrUnknownRange, http.StatusNotFound, "range not found").
		WithDefault(http.StatusInternalServerError, "availability operation failed")

	return &AvailabilityHandler{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		overlap:   overlap,
		mapper:    mapper,
	}
}

// Register mounts the availability routes under /api/v1.
func (h *AvailabilityHandler) Register(e *echo.Echo) {
	group := e.Group("/api/v1/availability")
	group.GET("/:restaurantId", h.getWeek)
	group.POST("/:restaurantId/hours", h.addHours)
	group.PUT("/:restaurantId/days/:day", h.replaceDay)
	group.DELETE("/:restaurantId/days/:day", h.deleteDay)
	group.DELETE("/:restaurantId/slots/:slotId", h.deleteSlot)
}

type rangePayload struct {
	ID    string `json:"id,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type addHoursRequest struct {
	Days   []string       `json:"days"`
	Ranges []rangePayload `json:"ranges"`
}

type replaceDayRequest struct {
	Ranges []rangePayload `json:"ranges"`
}

type rangeView struct {
	ID      string `json:"id,omitempty"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

type weekResponse struct {
	RestaurantID  string                 `json:"restaurantId"`
	Days          map[string][]rangeView `json:"days"`
	AvailableDays []string               `json:"availableDays"`
	FullyCovered  bool                   `json:"fullyCovered"`
}

func (h *AvailabilityHandler) getWeek(c echo.Context) error {
	editor, err := h.openEditor(c)
	if err != nil {
		return h.httpError(c, err)
	}
	if err := editor.Load(c.Request().Context()); err != nil {
		// The console renders an empty mapping when the fetch fails; the API
		// surfaces the same empty week with a warning rather than a 5xx.
		slog.Warn("availability fetch failed, serving empty mapping",
			slog.String("restaurantId", c.Param("restaurantId")), slog.Any("error", err))
	}
	return c.JSON(http.StatusOK, h.weekView(c.Param("restaurantId"), editor))
}

func (h *AvailabilityHandler) addHours(c echo.Context) error {
	var req addHoursRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	editor, err := h.openEditor(c)
	if err != nil {
		return h.httpError(c, err)
	}
	ctx := c.Request().Context()
	if err := editor.Load(ctx); err != nil {
		slog.Warn("availability fetch before add failed",
			slog.String("restaurantId", c.Param("restaurantId")), slog.Any("error", err))
	}

	if err := editor.OpenAddForm(); err != nil {
		return h.httpError(c, err)
	}
	for _, raw := range req.Days {
		day, ok := domain.ParseDay(raw)
		if !ok {
			return h.httpError(c, usecase.ErrUnknownDay)
		}
		if err := editor.ToggleDay(day); err != nil {
			return h.httpError(c, err)
		}
	}

	ranges, err := decodeRanges(req.Ranges, false)
	if err != nil {
		return h.httpError(c, err)
	}
	if err := editor.ReplaceStagedRanges(ranges); err != nil {
		return h.httpError(c, err)
	}
	if err := editor.Submit(ctx); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, h.weekView(c.Param("restaurantId"), editor))
}

func (h *AvailabilityHandler) replaceDay(c echo.Context) error {
	day, ok := domain.ParseDay(c.Param("day"))
	if !ok {
		return h.httpError(c, usecase.ErrUnknownDay)
	}

	var req replaceDayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	editor, err := h.openEditor(c)
	if err != nil {
		return h.httpError(c, err)
	}
	ctx := c.Request().Context()
	if err := editor.Load(ctx); err != nil {
		slog.Warn("availability fetch before edit failed",
			slog.String("restaurantId", c.Param("restaurantId")), slog.Any("error", err))
	}

	if err := editor.OpenEditForm(day); err != nil {
		return h.httpError(c, err)
	}
	ranges, err := decodeRanges(req.Ranges, true)
	if err != nil {
		return h.httpError(c, err)
	}
	if err := editor.ReplaceStagedRanges(ranges); err != nil {
		return h.httpError(c, err)
	}
	if err := editor.Submit(ctx); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, h.weekView(c.Param("restaurantId"), editor))
}

func (h *AvailabilityHandler) deleteDay(c echo.Context) error {
	day, ok := domain.ParseDay(c.Param("day"))
	if !ok {
		return h.httpError(c, usecase.ErrUnknownDay)
	}

	editor, err := h.openEditor(c)
	if err != nil {
		return h.httpError(c, err)
	}
	ctx := c.Request().Context()
	if err := editor.Load(ctx); err != nil {
		slog.Warn("availability fetch before day delete failed",
			slog.String("restaurantId", c.Param("restaurantId")), slog.Any("error", err))
	}

	if err := editor.RequestDeleteDay(day); err != nil {
		return h.httpError(c, err)
	}
	if err := editor.ConfirmDelete(ctx); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, h.weekView(c.Param("restaurantId"), editor))
}

func (h *AvailabilityHandler) deleteSlot(c echo.Context) error {
	slotID := strings.TrimSpace(c.Param("slotId"))
	if slotID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing slot id")
	}

	editor, err := h.openEditor(c)
	if err != nil {
		return h.httpError(c, err)
	}
	ctx := c.Request().Context()
	if err := editor.Load(ctx); err != nil {
		slog.Warn("availability fetch before slot delete failed",
			slog.String("restaurantId", c.Param("restaurantId")), slog.Any("error", err))
	}

	day, ok := findSlotDay(editor.Week(), slotID)
	if !ok {
		return h.httpError(c, usecase.ErrUnknownRange)
	}
	if err := editor.RequestDeleteRange(day, slotID); err != nil {
		return h.httpError(c, err)
	}
	if err := editor.ConfirmDelete(ctx); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, h.weekView(c.Param("restaurantId"), editor))
}

// openEditor authenticates the request and builds an editor session bound to
// the restaurant in the path.
func (h *AvailabilityHandler) openEditor(c echo.Context) (*usecase.EditorSession, error) {
	token := auth.ExtractToken(c.Request(), "token")
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	claims, err := h.validator.Validate(token)
	if err != nil {
		return nil, err
	}
	session := auth.NewSession(claims, token)
	restaurantID := strings.TrimSpace(c.Param("restaurantId"))
	if restaurantID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing restaurant id")
	}
	return usecase.NewEditorSession(h.repo, h.publisher, session, restaurantID, h.overlap), nil
}

func (h *AvailabilityHandler) httpError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	info := h.mapper.Map(err)
	if info.Status >= http.StatusInternalServerError {
		slog.Error("availability handler error",
			slog.String("path", c.Path()), slog.Int("status", info.Status), slog.Any("error", err))
	} else {
		slog.Warn("availability handler rejected",
			slog.String("path", c.Path()), slog.Int("status", info.Status), slog.Any("error", err))
	}
	return echo.NewHTTPError(info.Status, info.Message)
}

func (h *AvailabilityHandler) weekView(restaurantID string, editor *usecase.EditorSession) weekResponse {
	week := editor.Week()
	days := make(map[string][]rangeView, len(week))
	for day, ranges := range week {
		views := make([]rangeView, 0, len(ranges))
		for _, r := range ranges {
			views = append(views, rangeView{
				ID:      r.ID,
				Start:   string(r.Start),
				End:     string(r.End),
				Display: r.Start.Clock12() + " - " + r.End.Clock12(),
			})
		}
		days[string(day)] = views
	}

	available := editor.AvailableDays()
	availableNames := make([]string, 0, len(available))
	for _, day := range available {
		availableNames = append(availableNames, string(day))
	}

	return weekResponse{
		RestaurantID:  restaurantID,
		Days:          days,
		AvailableDays: availableNames,
		FullyCovered:  editor.FullyCovered(),
	}
}

// decodeRanges accepts either 12-hour picker labels ("6:00 PM") or stored
// 24-hour values ("18:00") for each bound.
func decodeRanges(payloads []rangePayload, allowIDs bool) ([]domain.TimeRange, error) {
	ranges := make([]domain.TimeRange, 0, len(payloads))
	for _, p := range payloads {
		start, err := decodeTime(p.Start)
		if err != nil {
			return nil, err
		}
		end, err := decodeTime(p.End)
		if err != nil {
			return nil, err
		}
		r := domain.TimeRange{Start: start, End: end}
		if allowIDs {
			r.ID = strings.TrimSpace(p.ID)
		} else if strings.TrimSpace(p.ID) != "" {
			return nil, usecase.ErrUnknownRange
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func decodeTime(raw string) (domain.TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if t, err := domain.ParseClock12(raw); err == nil {
		return t, nil
	}
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid time value "+strconv.Quote(raw))
	}
	return t, nil
}

func findSlotDay(week domain.WeeklyAvailability, slotID string) (domain.DayOfWeek, bool) {
	for _, day := range domain.WeekDays {
		for _, r := range week[day] {
			if r.ID == slotID {
				return day, true
			}
		}
	}
	return "", false
}
