package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"mesaYaAvailability/internal/modules/availability/application/port"
	"mesaYaAvailability/internal/modules/availability/domain"
	"mesaYaAvailability/internal/shared/auth"
)

// fakeSlotRepo is an in-memory backend double that records every call.
type fakeSlotRepo struct {
	week domain.WeeklyAvailability

	nextID    int
	saveCalls []saveCall
	deleted   []string

	fetchErr     error
	failSaveAt   int
	saveErr      error
	deleteErr    error
	deleteDayErr error
}

type saveCall struct {
	restaurantID string
	day          domain.DayOfWeek
	change       domain.SlotChange
}

func newFakeSlotRepo(week domain.WeeklyAvailability) *fakeSlotRepo {
	if week == nil {
		week = domain.WeeklyAvailability{}
	}
	return &fakeSlotRepo{week: week, failSaveAt: -1}
}

func (f *fakeSlotRepo) FetchSlots(_ context.Context, _ auth.Session, _ string) (domain.WeeklyAvailability, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := domain.WeeklyAvailability{}
	for day, ranges := range f.week {
		copied := make([]domain.TimeRange, len(ranges))
		copy(copied, ranges)
		out[day] = copied
	}
	return out, nil
}

func (f *fakeSlotRepo) SaveSlot(_ context.Context, _ auth.Session, restaurantID string, day domain.DayOfWeek, change domain.SlotChange) (domain.SlotRecord, error) {
	if f.failSaveAt >= 0 && len(f.saveCalls) == f.failSaveAt {
		err := f.saveErr
		if err == nil {
			err = errors.New("backend write failed")
		}
		return domain.SlotRecord{}, err
	}
	f.saveCalls = append(f.saveCalls, saveCall{restaurantID: restaurantID, day: day, change: change})

	if change.IsUpdate() {
		for i, r := range f.week[day] {
			if r.ID == change.ID {
				f.week[day][i].Start = change.Range.Start
				f.week[day][i].End = change.Range.End
				return domain.SlotRecord{ID: change.ID, Day: day, Range: f.week[day][i]}, nil
			}
		}
		return domain.SlotRecord{}, fmt.Errorf("unknown slot %s", change.ID)
	}

	f.nextID++
	id := "slot-" + strconv.Itoa(f.nextID)
	persisted := domain.TimeRange{Start: change.Range.Start, End: change.Range.End, ID: id}
	f.week[day] = append(f.week[day], persisted)
	return domain.SlotRecord{ID: id, Day: day, Range: persisted}, nil
}

func (f *fakeSlotRepo) DeleteDaySlots(_ context.Context, _ auth.Session, _ string, day domain.DayOfWeek) error {
	if f.deleteDayErr != nil {
		return f.deleteDayErr
	}
	delete(f.week, day)
	return nil
}

func (f *fakeSlotRepo) DeleteSlot(_ context.Context, _ auth.Session, slotID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, slotID)
	for day, ranges := range f.week {
		for i, r := range ranges {
			if r.ID == slotID {
				f.week[day] = append(ranges[:i], ranges[i+1:]...)
				if len(f.week[day]) == 0 {
					delete(f.week, day)
				}
				return nil
			}
		}
	}
	return nil
}

type capturingPublisher struct {
	messages []*domain.Message
}

func (p *capturingPublisher) Broadcast(_ context.Context, msg *domain.Message) {
	p.messages = append(p.messages, msg)
}

func newEditor(repo *fakeSlotRepo, publisher port.EventPublisher) *EditorSession {
	session := auth.Session{Token: "token", UserID: "user-1", Role: auth.RoleRestaurantAdmin}
	return NewEditorSession(repo, publisher, session, "rest-1", domain.OverlapAllow)
}

func TestLoadFailureLeavesEmptyWeek(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	repo.fetchErr = errors.New("backend down")

	editor := newEditor(repo, nil)
	if err := editor.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if len(editor.Week()) != 0 {
		t.Fatalf("expected empty week got %v", editor.Week())
	}
	// The session stays usable: the add form opens over the empty mapping.
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddFlowFansOutPerDayAndRange(t *testing.T) {
	repo := newFakeSlotRepo(nil)
	publisher := &capturingPublisher{}
	editor := newEditor(repo, publisher)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Wednesday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.SetRange(0, "6:00 PM", "11:00 PM"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.saveCalls) != 2 {
		t.Fatalf("expected 2 writes got %d", len(repo.saveCalls))
	}
	if repo.saveCalls[0].day != domain.Monday || repo.saveCalls[1].day != domain.Wednesday {
		t.Fatalf("unexpected write order: %+v", repo.saveCalls)
	}
	for _, call := range repo.saveCalls {
		if call.change.IsUpdate() {
			t.Fatalf("add flow issued an update: %+v", call.change)
		}
		if call.change.Range.Start != "18:00" || call.change.Range.End != "23:00" {
			t.Fatalf("unexpected range: %+v", call.change.Range)
		}
		if call.restaurantID != "rest-1" {
			t.Fatalf("unexpected restaurant: %s", call.restaurantID)
		}
	}

	if editor.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase got %s", editor.Phase())
	}
	week := editor.Week()
	if len(week[domain.Monday]) != 1 || len(week[domain.Wednesday]) != 1 {
		t.Fatalf("refetched week missing new ranges: %v", week)
	}
	if len(publisher.messages) != 1 || publisher.messages[0].Action != domain.ActionUpdated {
		t.Fatalf("expected one updated message got %+v", publisher.messages)
	}
}

func TestToggleDayRejectsConfiguredDay(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Monday); !errors.Is(err, ErrDayNotSelectable) {
		t.Fatalf("expected ErrDayNotSelectable got %v", err)
	}
	if err := editor.ToggleDay(domain.DayOfWeek("funday")); !errors.Is(err, ErrUnknownDay) {
		t.Fatalf("expected ErrUnknownDay got %v", err)
	}
}

func TestToggleDayDeselects(t *testing.T) {
	editor := newEditor(newFakeSlotRepo(nil), nil)
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Tuesday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Tuesday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := editor.SelectedDays(); len(got) != 0 {
		t.Fatalf("expected empty selection got %v", got)
	}
	if err := editor.Submit(context.Background()); !errors.Is(err, ErrNoDaysSelected) {
		t.Fatalf("expected ErrNoDaysSelected got %v", err)
	}
}

func TestOpenAddFormRefusedWhenFullyCovered(t *testing.T) {
	week := domain.WeeklyAvailability{}
	for i, day := range domain.WeekDays {
		week[day] = []domain.TimeRange{{Start: "09:00", End: "12:00", ID: "d-" + strconv.Itoa(i)}}
	}
	editor := newEditor(newFakeSlotRepo(week), nil)
	if err := editor.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenAddForm(); !errors.Is(err, ErrAddDisabled) {
		t.Fatalf("expected ErrAddDisabled got %v", err)
	}
}

func TestEditFlowUpdatesExistingRange(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := editor.OpenEditForm(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	staged := editor.StagedRanges()
	if len(staged) != 1 || staged[0].ID != "m-1" {
		t.Fatalf("staging lost the identifier: %+v", staged)
	}

	if err := editor.SetRange(0, "10:00 AM", "2:00 PM"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.Submit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.saveCalls) != 1 {
		t.Fatalf("expected exactly 1 write got %d", len(repo.saveCalls))
	}
	call := repo.saveCalls[0]
	if !call.change.IsUpdate() || call.change.ID != "m-1" {
		t.Fatalf("expected update of m-1 got %+v", call.change)
	}
	if call.change.Range.Start != "10:00" || call.change.Range.End != "14:00" {
		t.Fatalf("unexpected range: %+v", call.change.Range)
	}

	week := editor.Week()
	if week[domain.Monday][0].Start != "10:00" || week[domain.Monday][0].End != "14:00" {
		t.Fatalf("refetched week missing update: %v", week)
	}
}

func TestOpenEditFormRequiresConfiguredDay(t *testing.T) {
	editor := newEditor(newFakeSlotRepo(nil), nil)
	if err := editor.OpenEditForm(domain.Monday); !errors.Is(err, ErrDayNotConfigured) {
		t.Fatalf("expected ErrDayNotConfigured got %v", err)
	}
}

func TestSubmitValidationStopsBeforeNetwork(t *testing.T) {
	repo := newFakeSlotRepo(nil)
	editor := newEditor(repo, nil)
	ctx := context.Background()

	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.SetRange(0, "11:00 PM", "9:00 AM"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := editor.Submit(ctx)
	if !errors.Is(err, domain.ErrRangeOrder) {
		t.Fatalf("expected ErrRangeOrder got %v", err)
	}
	if len(repo.saveCalls) != 0 {
		t.Fatalf("validation failure reached the network: %+v", repo.saveCalls)
	}
	if editor.Phase() != PhaseAddForm {
		t.Fatalf("form should stay open, phase=%s", editor.Phase())
	}
}

func TestSubmitRollsBackPartialFanOut(t *testing.T) {
	repo := newFakeSlotRepo(nil)
	repo.failSaveAt = 2
	editor := newEditor(repo, nil)
	ctx := context.Background()

	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Tuesday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ToggleDay(domain.Wednesday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := editor.Submit(ctx); err == nil {
		t.Fatal("expected submit error")
	}

	// Two creates landed before the third write failed; both are compensated.
	if len(repo.deleted) != 2 {
		t.Fatalf("expected 2 compensating deletes got %v", repo.deleted)
	}
	if editor.Phase() != PhaseAddForm {
		t.Fatalf("form should stay open for retry, phase=%s", editor.Phase())
	}
	if len(editor.Week()) != 0 {
		t.Fatalf("refetched week should be empty after rollback: %v", editor.Week())
	}
}

func TestRemoveRangeRequiresIdentifier(t *testing.T) {
	repo := newFakeSlotRepo(nil)
	editor := newEditor(repo, nil)
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := editor.RemoveRange(context.Background(), 0)
	if !errors.Is(err, domain.ErrRangeNotPersisted) {
		t.Fatalf("expected ErrRangeNotPersisted got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("unpersisted removal reached the network: %v", repo.deleted)
	}
}

func TestRemoveRangeDeletesPersisted(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {
			{Start: "09:00", End: "12:00", ID: "m-1"},
			{Start: "13:00", End: "15:00", ID: "m-2"},
		},
	})
	publisher := &capturingPublisher{}
	editor := newEditor(repo, publisher)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenEditForm(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.RemoveRange(ctx, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.deleted) != 1 || repo.deleted[0] != "m-1" {
		t.Fatalf("expected delete of m-1 got %v", repo.deleted)
	}
	staged := editor.StagedRanges()
	if len(staged) != 1 || staged[0].ID != "m-2" {
		t.Fatalf("sibling range lost: %+v", staged)
	}
	week := editor.Week()
	if len(week[domain.Monday]) != 1 || week[domain.Monday][0].ID != "m-2" {
		t.Fatalf("refetched week wrong: %v", week)
	}
	if len(publisher.messages) != 1 || publisher.messages[0].Action != domain.ActionDeleted {
		t.Fatalf("expected one deleted message got %+v", publisher.messages)
	}
}

func TestDeleteDayConfirmFlow(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday:  {{Start: "09:00", End: "12:00", ID: "m-1"}},
		domain.Tuesday: {{Start: "09:00", End: "12:00", ID: "t-1"}},
	})
	publisher := &capturingPublisher{}
	editor := newEditor(repo, publisher)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := editor.RequestDeleteDay(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if editor.Phase() != PhaseDeleteConfirm {
		t.Fatalf("expected delete confirmation phase got %s", editor.Phase())
	}
	if err := editor.ConfirmDelete(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	week := editor.Week()
	if len(week[domain.Monday]) != 0 {
		t.Fatalf("monday should be gone: %v", week)
	}
	if len(week[domain.Tuesday]) != 1 {
		t.Fatalf("tuesday should survive: %v", week)
	}
	if editor.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase got %s", editor.Phase())
	}
	if len(publisher.messages) != 1 || publisher.messages[0].Action != domain.ActionDeleted {
		t.Fatalf("expected one deleted message got %+v", publisher.messages)
	}
}

func TestCancelDelete(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.RequestDeleteRange(domain.Monday, "m-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	editor.CancelDelete()
	if editor.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase got %s", editor.Phase())
	}
	if err := editor.ConfirmDelete(ctx); !errors.Is(err, ErrNoDeletePending) {
		t.Fatalf("expected ErrNoDeletePending got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("cancel reached the network: %v", repo.deleted)
	}
}

func TestConfirmDeleteStaysOpenOnFailure(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	repo.deleteErr = errors.New("backend down")
	editor := newEditor(repo, nil)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.RequestDeleteRange(domain.Monday, "m-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.ConfirmDelete(ctx); err == nil {
		t.Fatal("expected delete error")
	}
	if editor.Phase() != PhaseDeleteConfirm {
		t.Fatalf("confirmation should stay open, phase=%s", editor.Phase())
	}

	// Retry succeeds once the backend recovers.
	repo.deleteErr = nil
	if err := editor.ConfirmDelete(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if editor.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase got %s", editor.Phase())
	}
}

func TestRequestDeleteRangeGuards(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	if err := editor.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.RequestDeleteRange(domain.Monday, ""); !errors.Is(err, domain.ErrRangeNotPersisted) {
		t.Fatalf("expected ErrRangeNotPersisted got %v", err)
	}
	if err := editor.RequestDeleteRange(domain.Monday, "ghost"); !errors.Is(err, ErrUnknownRange) {
		t.Fatalf("expected ErrUnknownRange got %v", err)
	}
	if err := editor.RequestDeleteDay(domain.Friday); !errors.Is(err, ErrDayNotConfigured) {
		t.Fatalf("expected ErrDayNotConfigured got %v", err)
	}
}

func TestSingleFormAtATime(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	if err := editor.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenEditForm(domain.Monday); !errors.Is(err, ErrEditorBusy) {
		t.Fatalf("expected ErrEditorBusy got %v", err)
	}
	if err := editor.RequestDeleteDay(domain.Monday); !errors.Is(err, ErrEditorBusy) {
		t.Fatalf("expected ErrEditorBusy got %v", err)
	}
}

func TestReplaceStagedRangesChecksMembership(t *testing.T) {
	repo := newFakeSlotRepo(domain.WeeklyAvailability{
		domain.Monday: {{Start: "09:00", End: "12:00", ID: "m-1"}},
	})
	editor := newEditor(repo, nil)
	ctx := context.Background()
	if err := editor.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.OpenEditForm(domain.Monday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := editor.ReplaceStagedRanges([]domain.TimeRange{{Start: "09:00", End: "12:00", ID: "other"}})
	if !errors.Is(err, ErrUnknownRange) {
		t.Fatalf("expected ErrUnknownRange got %v", err)
	}

	tooMany := []domain.TimeRange{
		{Start: "08:00", End: "09:00"},
		{Start: "10:00", End: "11:00"},
		{Start: "12:00", End: "13:00"},
		{Start: "14:00", End: "15:00"},
	}
	if err := editor.ReplaceStagedRanges(tooMany); !errors.Is(err, domain.ErrRangeCapReached) {
		t.Fatalf("expected ErrRangeCapReached got %v", err)
	}
}

func TestAddRangeCap(t *testing.T) {
	editor := newEditor(newFakeSlotRepo(nil), nil)
	if err := editor.OpenAddForm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.AddRange(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.AddRange(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := editor.AddRange(); !errors.Is(err, domain.ErrRangeCapReached) {
		t.Fatalf("expected ErrRangeCapReached got %v", err)
	}
	if got := len(editor.StagedRanges()); got != domain.MaxRangesPerDay {
		t.Fatalf("expected %d staged ranges got %d", domain.MaxRangesPerDay, got)
	}
}
