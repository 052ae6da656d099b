package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

type editFixture struct {
	repo  *stubProfileRepo
	sync  *ProfileSyncController
	edit  *ProfileEditSession
	sched *manualScheduler
	notes *recordingNotifier
}

// newEditFixture returns an edit session over a controller already Ready
// with u1's profile.
func newEditFixture(t *testing.T) *editFixture {
	t.Helper()
	stored := testProfile("u1", "Ada")
	repo := profileRepoReturning(map[string]*domain.Profile{"u1": stored})
	repo.updateFn = func(_ context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
		p := stored.Clone()
		p.FirstName = patch.FirstName
		p.LastName = patch.LastName
		p.UpdatedAt = stored.UpdatedAt.Add(time.Second)
		return p, nil
	}

	sched := &manualScheduler{}
	notes := &recordingNotifier{}
	sync := NewProfileSyncController(repo, sched, notes, zerolog.Nop())
	edit := NewProfileEditSession(repo, sync, sched, notes, zerolog.Nop())

	sync.HandleSession(settled(testSession("s1", "u1")))
	sched.run(t, 0)
	if sync.State().Status != domain.SyncReady {
		t.Fatalf("fixture: expected ready, got %+v", sync.State())
	}
	return &editFixture{repo: repo, sync: sync, edit: edit, sched: sched, notes: notes}
}

func (f *editFixture) open(t *testing.T) {
	t.Helper()
	if err := f.edit.Open(f.sync.State().Profile); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
}

func TestProfileEdit_RoundTrip(t *testing.T) {
	f := newEditFixture(t)
	before := f.sync.State().Profile

	f.open(t)
	if d := f.edit.Draft(); d.FirstName != "Ada" || d.LastName != "Lovelace" {
		t.Fatalf("draft not initialised from profile: %+v", d)
	}
	if err := f.edit.Edit(domain.FieldFirstName, "Augusta"); err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if err := f.edit.Submit(); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if f.edit.State() != domain.EditSubmitting {
		t.Fatalf("expected submitting, got %s", f.edit.State())
	}

	f.sched.run(t, 1)

	st := f.sync.State()
	if st.Status != domain.SyncReady || *st.Profile.FirstName != "Augusta" {
		t.Fatalf("expected ready with new first name, got %+v", st)
	}
	if !st.Profile.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected later UpdatedAt, got %v (before %v)", st.Profile.UpdatedAt, before.UpdatedAt)
	}
	if f.edit.State() != domain.EditClosed {
		t.Fatalf("expected closed, got %s", f.edit.State())
	}
	if n, _ := f.notes.last(); n.Kind != domain.NotifySuccess {
		t.Fatalf("expected success notification, got %+v", n)
	}

	patch := f.repo.patches[0]
	if !patch.IfUnmodifiedSince.Equal(before.UpdatedAt) {
		t.Fatalf("expected conditional write on %v, got %v", before.UpdatedAt, patch.IfUnmodifiedSince)
	}
}

func TestProfileEdit_TransientFailureKeepsDraft(t *testing.T) {
	f := newEditFixture(t)
	f.repo.updateFn = func(context.Context, string, domain.ProfilePatch) (*domain.Profile, error) {
		return nil, errors.Join(domain.ErrTransient, errors.New("timeout"))
	}
	before := f.sync.State()

	f.open(t)
	_ = f.edit.Edit(domain.FieldFirstName, "Augusta")
	_ = f.edit.Submit()
	f.sched.run(t, 1)

	if f.edit.State() != domain.EditOpen {
		t.Fatalf("expected open after failure, got %s", f.edit.State())
	}
	if f.edit.Draft().FirstName != "Augusta" {
		t.Fatalf("draft lost: %+v", f.edit.Draft())
	}
	if f.edit.LastFailure() != domain.KindTransient {
		t.Fatalf("expected transient failure, got %q", f.edit.LastFailure())
	}
	after := f.sync.State()
	if after.Status != before.Status || *after.Profile.FirstName != *before.Profile.FirstName {
		t.Fatalf("controller changed on failed submit: %+v", after)
	}
	n, _ := f.notes.last()
	if n.Kind != domain.NotifyError || n.Cause != domain.KindTransient {
		t.Fatalf("expected transient error notification, got %+v", n)
	}

	// The draft can be submitted again.
	if err := f.edit.Submit(); err != nil {
		t.Fatalf("resubmit returned error: %v", err)
	}
}

func TestProfileEdit_ConflictKeepsEditOpen(t *testing.T) {
	f := newEditFixture(t)
	f.repo.updateFn = func(context.Context, string, domain.ProfilePatch) (*domain.Profile, error) {
		return nil, domain.ErrConflict
	}

	f.open(t)
	_ = f.edit.Submit()
	f.sched.run(t, 1)

	if f.edit.State() != domain.EditOpen || f.edit.LastFailure() != domain.KindConflict {
		t.Fatalf("expected open with conflict, got %s / %q", f.edit.State(), f.edit.LastFailure())
	}
	if n, _ := f.notes.last(); n.Cause != domain.KindConflict {
		t.Fatalf("expected conflict notification, got %+v", n)
	}
}

func TestProfileEdit_EmailIsReadOnly(t *testing.T) {
	f := newEditFixture(t)
	f.open(t)

	if err := f.edit.Edit(domain.FieldEmail, "evil@example.com"); !errors.Is(err, domain.ErrReadOnlyField) {
		t.Fatalf("expected ErrReadOnlyField, got %v", err)
	}
	if err := f.edit.Edit(domain.ProfileField("nickname"), "x"); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}

	_ = f.edit.Submit()
	f.sched.run(t, 1)

	if email := f.sync.State().Profile.Email; email == nil || *email != "u1@example.com" {
		t.Fatalf("email changed: %v", email)
	}
}

func TestProfileEdit_StateGuards(t *testing.T) {
	f := newEditFixture(t)

	if err := f.edit.Edit(domain.FieldFirstName, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Edit while closed: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Submit(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Submit while closed: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Cancel(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Cancel while closed: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Open(nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Open(nil): expected ErrInvalidState, got %v", err)
	}

	f.open(t)
	if err := f.edit.Open(f.sync.State().Profile); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second Open: expected ErrInvalidState, got %v", err)
	}

	_ = f.edit.Submit()
	if err := f.edit.Edit(domain.FieldFirstName, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Edit while submitting: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Submit(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("double Submit: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Cancel(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Cancel while submitting: expected ErrInvalidState, got %v", err)
	}
	if err := f.edit.Open(f.sync.State().Profile); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Open while submitting: expected ErrInvalidState, got %v", err)
	}
}

func TestProfileEdit_CancelDiscardsDraft(t *testing.T) {
	f := newEditFixture(t)
	f.open(t)
	_ = f.edit.Edit(domain.FieldLastName, "Byron")

	if err := f.edit.Cancel(); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if f.edit.State() != domain.EditClosed || f.edit.Draft() != (domain.EditDraft{}) {
		t.Fatalf("expected closed with empty draft, got %s %+v", f.edit.State(), f.edit.Draft())
	}
	if len(f.repo.patches) != 0 {
		t.Fatalf("cancel must not write")
	}
}

func TestProfileEdit_SessionEndedDuringSubmit(t *testing.T) {
	f := newEditFixture(t)
	f.open(t)
	_ = f.edit.Edit(domain.FieldFirstName, "Augusta")
	_ = f.edit.Submit()

	f.sync.HandleSession(settled(nil))
	f.sched.run(t, 1)

	if f.edit.State() != domain.EditClosed {
		t.Fatalf("expected closed, got %s", f.edit.State())
	}
	if st := f.sync.State(); st.Status != domain.SyncIdle {
		t.Fatalf("late update applied after sign-out: %+v", st)
	}
	n, _ := f.notes.last()
	if n.Kind != domain.NotifyError || n.Cause != domain.KindSessionEnded {
		t.Fatalf("expected session_ended notification, got %+v", n)
	}
}
