package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/modules/availability/infrastructure"
	"mesaYaAvailability/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewAvailabilityWebsocketHandler expone /ws/availability/:restaurant y valida
// el JWT localmente. On connect the client receives a snapshot of the current
// weekly mapping, then live updated/deleted events as editors save changes.
func NewAvailabilityWebsocketHandler(
	hub *infrastructure.Hub,
	repo port.SlotRepository,
	validator auth.TokenValidator,
	sendBuffer int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		restaurantID := strings.TrimSpace(c.Param("restaurant"))
		if restaurantID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing restaurant")
		}

		token := strings.TrimSpace(c.Param("token"))
		if token == "" {
			token = auth.ExtractToken(c.Request(), "token")
		}
		claims, err := validator.Validate(token)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid token"
			if errors.Is(err, auth.ErrMissingToken) {
				status = http.StatusBadRequest
				message = "missing token"
			}
			slog.Warn("ws availability rejected",
				slog.String("restaurantId", restaurantID), slog.Int("status", status), slog.Any("error", err))
			return echo.NewHTTPError(status, message)
		}
		session := auth.NewSession(claims, token)

		// Snapshot before upgrading so auth/backend failures still map to HTTP
		// status codes. A missing mapping is an empty snapshot, not an error.
		week, err := repo.FetchSlots(c.Request().Context(), session, restaurantID)
		if err != nil {
			slog.Warn("ws availability snapshot fetch failed, sending empty mapping",
				slog.String("restaurantId", restaurantID), slog.Any("error", err))
			week = domain.WeeklyAvailability{}
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws availability upgrade failed",
				slog.String("restaurantId", restaurantID), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, session.UserID, restaurantID, sendBuffer)
		snapshot := domain.BuildWeekMessage(domain.ActionSnapshot, restaurantID, week, time.Now().UTC())
		if data, marshalErr := json.Marshal(snapshot); marshalErr == nil {
			client.Enqueue(data)
		} else {
			slog.Error("ws availability snapshot marshal failed",
				slog.String("restaurantId", restaurantID), slog.Any("error", marshalErr))
		}
		client.Start()

		slog.Info("ws availability connected",
			slog.String("restaurantId", restaurantID), slog.String("userId", session.UserID))
		return nil
	}
}
