package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/auth"
)

// Phase names the editor's state-machine positions. One form at a time: the add
// and edit forms are mutually exclusive, and delete confirmation is its own state.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAddForm       Phase = "add_form"
	PhaseEditForm      Phase = "edit_form"
	PhaseSubmitting    Phase = "submitting"
	PhaseDeleteConfirm Phase = "delete_confirm"
)

var (
	ErrEditorBusy       = errors.New("another form is already open")
	ErrNoFormOpen       = errors.New("no form is open")
	ErrAddDisabled      = errors.New("every day already has reservation hours")
	ErrUnknownDay       = errors.New("unknown day")
	ErrDayNotConfigured = errors.New("day has no reservation hours")
	ErrDayNotSelectable = errors.New("day already has reservation hours")
	ErrNoDaysSelected   = errors.New("no days selected")
	ErrUnknownRange     = errors.New("range identifier does not belong to this day")
	ErrNoDeletePending  = errors.New("no delete confirmation pending")
)

// EditorSession drives one restaurant's reservation-hours editing session: it
// owns the refetched weekly snapshot, the staged form state, and the fan-out of
// a submission into individual backend writes.
//
// A session is single-goroutine by construction (one per request or per console
// connection); it carries no locks.
type EditorSession struct {
	repo         port.SlotRepository
	publisher    port.EventPublisher
	session      auth.Session
	restaurantID string
	overlap      domain.OverlapPolicy
	now          func() time.Time

	phase         Phase
	week          domain.WeeklyAvailability
	selectedDays  []domain.DayOfWeek
	staged        *domain.StagedRanges
	editDay       domain.DayOfWeek
	pendingDelete *deleteTarget
}

// deleteTarget is what the open confirmation will remove: a single range when
// SlotID is set, otherwise the whole day.
type deleteTarget struct {
	Day    domain.DayOfWeek
	SlotID string
}

func NewEditorSession(
	repo port.SlotRepository,
	publisher port.EventPublisher,
	session auth.Session,
	restaurantID string,
	overlap domain.OverlapPolicy,
) *EditorSession {
	return &EditorSession{
		repo:         repo,
		publisher:    publisher,
		session:      session,
		restaurantID: restaurantID,
		overlap:      overlap,
		now:          time.Now,
		phase:        PhaseIdle,
		week:         domain.WeeklyAvailability{},
	}
}

// Load hydrates the weekly snapshot from the backend. A failed fetch leaves the
// session usable over an empty mapping; the caller decides how loudly to report it.
func (e *EditorSession) Load(ctx context.Context) error {
	week, err := e.repo.FetchSlots(ctx, e.session, e.restaurantID)
	if err != nil {
		slog.Warn("availability load failed", slog.String("restaurantId", e.restaurantID), slog.Any("error", err))
		e.week = domain.WeeklyAvailability{}
		return err
	}
	e.week = week
	return nil
}

// Phase returns the current state-machine position.
func (e *EditorSession) Phase() Phase { return e.phase }

// Week returns the current snapshot of the restaurant's weekly mapping.
func (e *EditorSession) Week() domain.WeeklyAvailability { return e.week }

// AvailableDays lists the weekdays the add form may still target.
func (e *EditorSession) AvailableDays() []domain.DayOfWeek { return e.week.AvailableDays() }

// FullyCovered reports whether the add-hours action is disabled.
func (e *EditorSession) FullyCovered() bool { return e.week.FullyCovered() }

// SelectedDays returns the days currently chosen in the open form.
func (e *EditorSession) SelectedDays() []domain.DayOfWeek {
	out := make([]domain.DayOfWeek, len(e.selectedDays))
	copy(out, e.selectedDays)
	return out
}

// StagedRanges returns the ranges currently staged in the open form.
func (e *EditorSession) StagedRanges() []domain.TimeRange {
	if e.staged == nil {
		return nil
	}
	return e.staged.Ranges()
}

// OpenAddForm starts the add-hours flow with an empty day selection and the
// single default range. Refused once every day already has hours.
func (e *EditorSession) OpenAddForm() error {
	if e.phase != PhaseIdle {
		return ErrEditorBusy
	}
	if e.week.FullyCovered() {
		return ErrAddDisabled
	}
	e.selectedDays = nil
	e.staged = domain.NewStagedRanges()
	e.editDay = ""
	e.phase = PhaseAddForm
	return nil
}

// OpenEditForm starts the edit flow for one configured day, seeding staging
// from its persisted ranges so identifiers are carried into updates.
func (e *EditorSession) OpenEditForm(day domain.DayOfWeek) error {
	if e.phase != PhaseIdle {
		return ErrEditorBusy
	}
	if !day.Valid() {
		return ErrUnknownDay
	}
	ranges := e.week.Ranges(day)
	if len(ranges) == 0 {
		return ErrDayNotConfigured
	}
	e.selectedDays = []domain.DayOfWeek{day}
	e.staged = domain.SeedStagedRanges(ranges)
	e.editDay = day
	e.phase = PhaseEditForm
	return nil
}

// ToggleDay adds or removes a day from the add form's selection. Only days
// without configured hours are selectable; editing is always single-day.
func (e *EditorSession) ToggleDay(day domain.DayOfWeek) error {
	if e.phase != PhaseAddForm {
		return ErrNoFormOpen
	}
	if !day.Valid() {
		return ErrUnknownDay
	}
	if len(e.week.Ranges(day)) > 0 {
		return ErrDayNotSelectable
	}
	for i, selected := range e.selectedDays {
		if selected == day {
			e.selectedDays = append(e.selectedDays[:i], e.selectedDays[i+1:]...)
			return nil
		}
	}
	e.selectedDays = append(e.selectedDays, day)
	return nil
}

// AddRange stages another default range; the fourth add is a refused no-op.
func (e *EditorSession) AddRange() error {
	if e.phase != PhaseAddForm && e.phase != PhaseEditForm {
		return ErrNoFormOpen
	}
	return e.staged.Add()
}

// SetRange updates one staged range from the picker's 12-hour display values.
func (e *EditorSession) SetRange(index int, startDisplay, endDisplay string) error {
	if e.phase != PhaseAddForm && e.phase != PhaseEditForm {
		return ErrNoFormOpen
	}
	start, err := domain.ParseClock12(startDisplay)
	if err != nil {
		return err
	}
	end, err := domain.ParseClock12(endDisplay)
	if err != nil {
		return err
	}
	return e.staged.Set(index, start, end)
}

// ReplaceStagedRanges swaps the whole staging set in one step, for callers that
// submit a complete form at once. Identifiers must belong to the day being
// edited; the add form accepts only unpersisted ranges.
func (e *EditorSession) ReplaceStagedRanges(ranges []domain.TimeRange) error {
	if e.phase != PhaseAddForm && e.phase != PhaseEditForm {
		return ErrNoFormOpen
	}
	if len(ranges) > domain.MaxRangesPerDay {
		return domain.ErrRangeCapReached
	}
	persisted := map[string]bool{}
	if e.phase == PhaseEditForm {
		for _, r := range e.week.Ranges(e.editDay) {
			persisted[r.ID] = true
		}
	}
	for _, r := range ranges {
		if r.ID != "" && !persisted[r.ID] {
			return ErrUnknownRange
		}
	}
	e.staged = domain.SeedStagedRanges(ranges)
	return nil
}

// RemoveRange drops one staged range. Persisted ranges are deleted on the
// backend first; a range without an identifier cannot be removed, mirroring the
// console's guard, and never causes a network call.
func (e *EditorSession) RemoveRange(ctx context.Context, index int) error {
	if e.phase != PhaseAddForm && e.phase != PhaseEditForm {
		return ErrNoFormOpen
	}
	staged, err := e.staged.At(index)
	if err != nil {
		return err
	}
	if !staged.Persisted() {
		return domain.ErrRangeNotPersisted
	}
	if err := e.repo.DeleteSlot(ctx, e.session, staged.ID); err != nil {
		slog.Warn("availability range delete failed", slog.String("restaurantId", e.restaurantID), slog.String("slotId", staged.ID), slog.Any("error", err))
		return fmt.Errorf("delete range: %w", err)
	}
	if err := e.staged.Remove(index); err != nil {
		return err
	}
	e.reload(ctx)
	e.publish(ctx, domain.ActionDeleted)
	return nil
}

// Submit validates the staged ranges and fans the selection out into one backend
// write per (day, range) pair, in staging order. Validation failures stop before
// any network call. A mid-loop backend failure triggers compensating deletes of
// the creates that already succeeded, so no silent mixed state survives; the
// form stays open for a retry either way, and only a fully applied submission
// closes it.
func (e *EditorSession) Submit(ctx context.Context) error {
	if e.phase != PhaseAddForm && e.phase != PhaseEditForm {
		return ErrNoFormOpen
	}
	formPhase := e.phase
	if len(e.selectedDays) == 0 {
		return ErrNoDaysSelected
	}

	ranges := e.staged.Ranges()
	if err := domain.ValidateRanges(ranges, e.overlap); err != nil {
		slog.Info("availability submit rejected", slog.String("restaurantId", e.restaurantID), slog.Any("error", err))
		return err
	}

	e.phase = PhaseSubmitting
	created := make([]string, 0, len(e.selectedDays)*len(ranges))
	for _, day := range e.selectedDays {
		for _, r := range ranges {
			change := domain.NewSlot(r)
			if r.Persisted() {
				change = domain.ExistingSlot(r.ID, r)
			}
			record, err := e.repo.SaveSlot(ctx, e.session, e.restaurantID, day, change)
			if err != nil {
				slog.Error("availability save failed",
					slog.String("restaurantId", e.restaurantID),
					slog.String("day", string(day)),
					slog.String("slotId", change.ID),
					slog.Any("error", err),
				)
				e.rollback(ctx, created)
				e.reload(ctx)
				e.phase = formPhase
				return fmt.Errorf("apply reservation hours: %w", err)
			}
			if !change.IsUpdate() && record.ID != "" {
				created = append(created, record.ID)
			}
		}
	}

	e.reload(ctx)
	e.closeForm()
	e.publish(ctx, domain.ActionUpdated)
	slog.Info("availability submitted", slog.String("restaurantId", e.restaurantID), slog.Int("writes", len(e.selectedDays)*len(ranges)))
	return nil
}

// RequestDeleteRange opens the confirmation for removing one persisted range.
func (e *EditorSession) RequestDeleteRange(day domain.DayOfWeek, slotID string) error {
	if e.phase != PhaseIdle {
		return ErrEditorBusy
	}
	if !day.Valid() {
		return ErrUnknownDay
	}
	if slotID == "" {
		return domain.ErrRangeNotPersisted
	}
	found := false
	for _, r := range e.week.Ranges(day) {
		if r.ID == slotID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownRange
	}
	e.pendingDelete = &deleteTarget{Day: day, SlotID: slotID}
	e.phase = PhaseDeleteConfirm
	return nil
}

// RequestDeleteDay opens the confirmation for removing every range on one day.
func (e *EditorSession) RequestDeleteDay(day domain.DayOfWeek) error {
	if e.phase != PhaseIdle {
		return ErrEditorBusy
	}
	if !day.Valid() {
		return ErrUnknownDay
	}
	if len(e.week.Ranges(day)) == 0 {
		return ErrDayNotConfigured
	}
	e.pendingDelete = &deleteTarget{Day: day}
	e.phase = PhaseDeleteConfirm
	return nil
}

// CancelDelete closes the confirmation without touching the backend.
func (e *EditorSession) CancelDelete() {
	if e.phase == PhaseDeleteConfirm {
		e.pendingDelete = nil
		e.phase = PhaseIdle
	}
}

// ConfirmDelete executes the pending deletion, then refetches and recomputes
// coverage. The confirmation stays open when the backend call fails.
func (e *EditorSession) ConfirmDelete(ctx context.Context) error {
	if e.phase != PhaseDeleteConfirm || e.pendingDelete == nil {
		return ErrNoDeletePending
	}
	target := *e.pendingDelete

	var err error
	if target.SlotID == "" {
		err = e.repo.DeleteDaySlots(ctx, e.session, e.restaurantID, target.Day)
	} else {
		err = e.repo.DeleteSlot(ctx, e.session, target.SlotID)
	}
	if err != nil {
		slog.Error("availability delete failed",
			slog.String("restaurantId", e.restaurantID),
			slog.String("day", string(target.Day)),
			slog.String("slotId", target.SlotID),
			slog.Any("error", err),
		)
		return fmt.Errorf("delete reservation hours: %w", err)
	}

	e.pendingDelete = nil
	e.phase = PhaseIdle
	e.reload(ctx)
	e.publish(ctx, domain.ActionDeleted)
	return nil
}

func (e *EditorSession) closeForm() {
	e.phase = PhaseIdle
	e.selectedDays = nil
	e.staged = nil
	e.editDay = ""
}

// rollback compensates a partial fan-out by deleting the creates that already
// landed. Failures here are logged and skipped; the subsequent refetch shows the
// true backend state either way.
func (e *EditorSession) rollback(ctx context.Context, created []string) {
	for _, slotID := range created {
		if err := e.repo.DeleteSlot(ctx, e.session, slotID); err != nil {
			slog.Warn("availability rollback delete failed", slog.String("restaurantId", e.restaurantID), slog.String("slotId", slotID), slog.Any("error", err))
		}
	}
	if len(created) > 0 {
		slog.Info("availability rollback issued", slog.String("restaurantId", e.restaurantID), slog.Int("deletes", len(created)))
	}
}

func (e *EditorSession) reload(ctx context.Context) {
	week, err := e.repo.FetchSlots(ctx, e.session, e.restaurantID)
	if err != nil {
		slog.Warn("availability refetch failed", slog.String("restaurantId", e.restaurantID), slog.Any("error", err))
		e.week = domain.WeeklyAvailability{}
		return
	}
	e.week = week
}

func (e *EditorSession) publish(ctx context.Context, action string) {
	if e.publisher == nil {
		return
	}
	msg := domain.BuildWeekMessage(action, e.restaurantID, e.week, e.now())
	if msg == nil {
		return
	}
	e.publisher.Broadcast(ctx, msg)
}
