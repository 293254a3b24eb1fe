package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clubevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func user(id string) domain.Principal {
	return domain.Principal{Kind: domain.PrincipalUser, UserID: id, Email: id + "@uni.edu", DisplayName: "User " + id}
}

func organizerPrincipal(id string) domain.Principal {
	return domain.Principal{Kind: domain.PrincipalOrganizer, UserID: id, Email: id + "@uni.edu", DisplayName: "Org " + id}
}

func adminPrincipal() domain.Principal {
	return domain.Principal{Kind: domain.PrincipalAdmin, UserID: "admin", Email: "admin@uni.edu", DisplayName: "Admin"}
}

func activeEvent(max int) *domain.Event {
	return &domain.Event{
		Title:        "Robotics Workshop",
		Description:  "Build a robot",
		Location:     "Lab 3",
		Date:         testNow.Add(72 * time.Hour),
		MaxAttendees: max,
		OrganizerID:  "org-1",
		Status:       domain.EventActive,
	}
}

type registrationFixture struct {
	store     *fakeStore
	publisher *fakePublisher
	svc       *registrationService
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewRegistrationService(store, registrationRepo{store}, pub, nil, discardLogger(), 5*time.Second).(*registrationService)
	svc.now = func() time.Time { return testNow }
	return &registrationFixture{store: store, publisher: pub, svc: svc}
}

func TestRegisterForEvent_Success(t *testing.T) {
	fx := newRegistrationFixture(t)
	ev := fx.store.addEvent(activeEvent(10))

	reg, err := fx.svc.RegisterForEvent(context.Background(), user("alice"), domain.RegisterInput{EventID: ev.ID, Reason: " curious "})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, domain.RegistrationConfirmed, reg.Status)
	assert.Equal(t, "alice", reg.UserID)
	assert.Equal(t, "User alice", reg.UserName)
	assert.Equal(t, "alice@uni.edu", reg.UserEmail)
	assert.Equal(t, "curious", reg.Reason)

	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
	assert.Equal(t, testNow, fx.store.event(ev.ID).UpdatedAt)

	changes := fx.publisher.published()
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeCreated, changes[0].Kind)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, reg.ID, changes[0].After.ID)
}

func TestRegisterForEvent_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(fx *registrationFixture) string
		p       domain.Principal
		wantErr error
	}{
		{
			name:    "anonymous",
			setup:   func(fx *registrationFixture) string { return fx.store.addEvent(activeEvent(5)).ID },
			p:       domain.Anonymous(),
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name:    "event not found",
			setup:   func(fx *registrationFixture) string { return "missing" },
			p:       user("alice"),
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "event cancelled",
			setup: func(fx *registrationFixture) string {
				ev := activeEvent(5)
				ev.Status = domain.EventCancelled
				return fx.store.addEvent(ev).ID
			},
			p:       user("alice"),
			wantErr: domain.ErrEventNotActive,
		},
		{
			name: "event completed with capacity",
			setup: func(fx *registrationFixture) string {
				ev := activeEvent(100)
				ev.Status = domain.EventCompleted
				return fx.store.addEvent(ev).ID
			},
			p:       user("alice"),
			wantErr: domain.ErrEventNotActive,
		},
		{
			name: "event full",
			setup: func(fx *registrationFixture) string {
				ev := activeEvent(1)
				ev.CurrentAttendees = 1
				return fx.store.addEvent(ev).ID
			},
			p:       user("alice"),
			wantErr: domain.ErrEventFull,
		},
		{
			name: "already registered",
			setup: func(fx *registrationFixture) string {
				ev := fx.store.addEvent(activeEvent(5))
				fx.store.addRegistration(domain.NewRegistration(ev.ID, "alice", "A", "alice@uni.edu", "", testNow))
				return ev.ID
			},
			p:       user("alice"),
			wantErr: domain.ErrAlreadyRegistered,
		},
		{
			name: "already registered wins over inactive",
			setup: func(fx *registrationFixture) string {
				ev := activeEvent(5)
				ev.Status = domain.EventCancelled
				ev = fx.store.addEvent(ev)
				fx.store.addRegistration(domain.NewRegistration(ev.ID, "alice", "A", "alice@uni.edu", "", testNow))
				return ev.ID
			},
			p:       user("alice"),
			wantErr: domain.ErrAlreadyRegistered,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newRegistrationFixture(t)
			eventID := tt.setup(fx)
			before := fx.store.event(eventID)

			_, err := fx.svc.RegisterForEvent(context.Background(), tt.p, domain.RegisterInput{EventID: eventID})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, fx.publisher.published())
			if before != nil {
				assert.Equal(t, before.CurrentAttendees, fx.store.event(eventID).CurrentAttendees)
			}
		})
	}
}

func TestRegisterForEvent_ValidationErrors(t *testing.T) {
	fx := newRegistrationFixture(t)
	ev := fx.store.addEvent(activeEvent(5))

	_, err := fx.svc.RegisterForEvent(context.Background(), user("alice"), domain.RegisterInput{EventID: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fx.svc.RegisterForEvent(context.Background(), user("alice"), domain.RegisterInput{EventID: ev.ID, UserEmail: "not-an-email"})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "user_email", vErr.Field)
}

func TestRegisterForEvent_ConcurrentSameUserExactlyOneSucceeds(t *testing.T) {
	fx := newRegistrationFixture(t)
	ev := fx.store.addEvent(activeEvent(50))

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.RegisterForEvent(context.Background(), user("alice"), domain.RegisterInput{EventID: ev.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyRegistered):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
}

func TestRegisterForEvent_ConcurrentNeverExceedsCapacity(t *testing.T) {
	fx := newRegistrationFixture(t)
	ev := fx.store.addEvent(activeEvent(3))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = fx.svc.RegisterForEvent(context.Background(), user(fmt.Sprintf("u%d", i)), domain.RegisterInput{EventID: ev.ID})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, fx.store.event(ev.ID).CurrentAttendees)
	regs, err := registrationRepo{fx.store}.ListByEventID(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 3)
}

func TestRegistrationScenario_CapacityOneCancelThenReregister(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()
	ev := fx.store.addEvent(activeEvent(1))

	regA, err := fx.svc.RegisterForEvent(ctx, user("a"), domain.RegisterInput{EventID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)

	_, err = fx.svc.RegisterForEvent(ctx, user("b"), domain.RegisterInput{EventID: ev.ID})
	assert.ErrorIs(t, err, domain.ErrEventFull)
	assert.ErrorIs(t, err, domain.ErrConflict)

	cancelled, err := fx.svc.CancelRegistration(ctx, user("a"), regA.ID, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationCancelled, cancelled.Status)
	assert.Equal(t, 0, fx.store.event(ev.ID).CurrentAttendees)

	_, err = fx.svc.RegisterForEvent(ctx, user("b"), domain.RegisterInput{EventID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
}

func TestCancelThenReregisterSameUser(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()
	ev := fx.store.addEvent(activeEvent(5))

	reg, err := fx.svc.RegisterForEvent(ctx, user("a"), domain.RegisterInput{EventID: ev.ID})
	require.NoError(t, err)
	_, err = fx.svc.CancelRegistration(ctx, user("a"), reg.ID, ev.ID)
	require.NoError(t, err)

	again, err := fx.svc.RegisterForEvent(ctx, user("a"), domain.RegisterInput{EventID: ev.ID})
	require.NoError(t, err)
	assert.NotEqual(t, reg.ID, again.ID)
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
}

func TestCancelRegistration(t *testing.T) {
	t.Run("counter floors at zero", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := fx.store.addEvent(activeEvent(5))
		reg := fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

		_, err := fx.svc.CancelRegistration(context.Background(), user("a"), reg.ID, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, fx.store.event(ev.ID).CurrentAttendees)
	})

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := activeEvent(5)
		ev.CurrentAttendees = 2
		ev = fx.store.addEvent(ev)
		r := domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow)
		r.Status = domain.RegistrationCancelled
		reg := fx.store.addRegistration(r)

		got, err := fx.svc.CancelRegistration(context.Background(), user("a"), reg.ID, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationCancelled, got.Status)
		assert.Equal(t, 2, fx.store.event(ev.ID).CurrentAttendees)
		assert.Empty(t, fx.publisher.published())
	})

	t.Run("event id mismatch is not found", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := fx.store.addEvent(activeEvent(5))
		reg := fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

		_, err := fx.svc.CancelRegistration(context.Background(), user("a"), reg.ID, "other-event")
		assert.ErrorIs(t, err, domain.ErrRegistrationNotFound)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := activeEvent(5)
		ev.CurrentAttendees = 1
		ev = fx.store.addEvent(ev)
		reg := fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

		_, err := fx.svc.CancelRegistration(context.Background(), user("b"), reg.ID, ev.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
		assert.Equal(t, domain.RegistrationConfirmed, fx.store.registration(reg.ID).Status)
	})

	t.Run("event organizer may cancel", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := activeEvent(5)
		ev.CurrentAttendees = 1
		ev = fx.store.addEvent(ev)
		reg := fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

		_, err := fx.svc.CancelRegistration(context.Background(), organizerPrincipal("org-1"), reg.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 0, fx.store.event(ev.ID).CurrentAttendees)

		changes := fx.publisher.published()
		require.Len(t, changes, 1)
		assert.Equal(t, domain.ChangeUpdated, changes[0].Kind)
		assert.Equal(t, domain.RegistrationConfirmed, changes[0].Before.Status)
		assert.Equal(t, domain.RegistrationCancelled, changes[0].After.Status)
	})

	t.Run("owner may cancel after event deleted", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		reg := fx.store.addRegistration(domain.NewRegistration("gone", "a", "A", "a@uni.edu", "", testNow))

		got, err := fx.svc.CancelRegistration(context.Background(), user("a"), reg.ID, "gone")
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationCancelled, got.Status)
	})
}

func TestApproveRegistration(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()
	ev := activeEvent(5)
	ev.CurrentAttendees = 1
	ev = fx.store.addEvent(ev)
	r := domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow)
	r.Status = domain.RegistrationWaitlist
	reg := fx.store.addRegistration(r)

	_, err := fx.svc.ApproveRegistration(ctx, user("a"), reg.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.svc.ApproveRegistration(ctx, organizerPrincipal("org-2"), reg.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := fx.svc.ApproveRegistration(ctx, organizerPrincipal("org-1"), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationConfirmed, got.Status)
	// waitlist already holds a seat
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)

	changes := fx.publisher.published()
	require.Len(t, changes, 1)
	assert.Equal(t, domain.RegistrationWaitlist, changes[0].Before.Status)
	assert.Equal(t, domain.RegistrationConfirmed, changes[0].After.Status)
}

func TestUpdateRegistration_ReactivateCancelled(t *testing.T) {
	t.Run("rechecks capacity", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := activeEvent(1)
		ev.CurrentAttendees = 1
		ev = fx.store.addEvent(ev)
		r := domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow)
		r.Status = domain.RegistrationCancelled
		reg := fx.store.addRegistration(r)

		_, err := fx.svc.ApproveRegistration(context.Background(), adminPrincipal(), reg.ID)
		assert.ErrorIs(t, err, domain.ErrEventFull)
		assert.Equal(t, domain.RegistrationCancelled, fx.store.registration(reg.ID).Status)
	})

	t.Run("rechecks uniqueness", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := fx.store.addEvent(activeEvent(5))
		r := domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow)
		r.Status = domain.RegistrationCancelled
		old := fx.store.addRegistration(r)
		fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

		_, err := fx.svc.ApproveRegistration(context.Background(), adminPrincipal(), old.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	})

	t.Run("increments counter", func(t *testing.T) {
		fx := newRegistrationFixture(t)
		ev := fx.store.addEvent(activeEvent(5))
		r := domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow)
		r.Status = domain.RegistrationCancelled
		reg := fx.store.addRegistration(r)

		got, err := fx.svc.ApproveRegistration(context.Background(), organizerPrincipal("org-1"), reg.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationConfirmed, got.Status)
		assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
	})
}

func TestUpdateRegistration_Fields(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()
	ev := fx.store.addEvent(activeEvent(5))
	reg := fx.store.addRegistration(domain.NewRegistration(ev.ID, "a", "A", "a@uni.edu", "", testNow))

	notes := "front row"
	attended := true
	patch := domain.RegistrationPatch{Notes: &notes, Attendance: &attended}

	_, err := fx.svc.UpdateRegistration(ctx, user("a"), reg.ID, patch)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := fx.svc.UpdateRegistration(ctx, organizerPrincipal("org-1"), reg.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "front row", got.Notes)
	require.NotNil(t, got.Attendance)
	assert.True(t, *got.Attendance)

	_, err = fx.svc.UpdateRegistration(ctx, adminPrincipal(), reg.ID, domain.RegistrationPatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := domain.RegistrationStatus("pending")
	_, err = fx.svc.UpdateRegistration(ctx, adminPrincipal(), reg.ID, domain.RegistrationPatch{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fx.svc.UpdateRegistration(ctx, adminPrincipal(), "missing", patch)
	assert.ErrorIs(t, err, domain.ErrRegistrationNotFound)
}

func TestRegistrationReads(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()
	ev1 := fx.store.addEvent(activeEvent(5))
	ev2 := fx.store.addEvent(activeEvent(5))
	gone := "deleted-event"

	r1 := domain.NewRegistration(ev1.ID, "a", "A", "a@uni.edu", "", testNow.Add(-2*time.Hour))
	r2 := domain.NewRegistration(ev2.ID, "a", "A", "a@uni.edu", "", testNow.Add(-time.Hour))
	r3 := domain.NewRegistration(gone, "a", "A", "a@uni.edu", "", testNow)
	r4 := domain.NewRegistration(ev1.ID, "b", "B", "b@uni.edu", "", testNow)
	for _, r := range []*domain.Registration{r1, r2, r3, r4} {
		fx.store.addRegistration(r)
	}

	mine, err := fx.svc.ListMyRegistrations(ctx, user("a"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, r2.ID, mine[0].Registration.ID)
	assert.Equal(t, r1.ID, mine[1].Registration.ID)
	assert.Equal(t, ev2.ID, mine[0].Event.ID)

	_, err = fx.svc.ListMyRegistrations(ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	list, err := fx.svc.ListEventRegistrations(ctx, organizerPrincipal("org-1"), ev1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, r1.ID, list[0].ID)
	assert.Equal(t, r4.ID, list[1].ID)

	_, err = fx.svc.ListEventRegistrations(ctx, user("a"), ev1.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.svc.ListEventRegistrations(ctx, adminPrincipal(), "nope")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	got, err := fx.svc.GetRegistration(ctx, user("a"), r1.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, got.ID)
	_, err = fx.svc.GetRegistration(ctx, user("b"), r1.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.svc.GetRegistration(ctx, organizerPrincipal("org-1"), r4.ID)
	assert.NoError(t, err)
}

func TestRegisterForEvent_PublishFailureIsLoggedOnly(t *testing.T) {
	fx := newRegistrationFixture(t)
	h := &capturingHandler{}
	fx.svc.logger = slog.New(h)
	fx.publisher.err = errBoom
	ev := fx.store.addEvent(activeEvent(5))

	reg, err := fx.svc.RegisterForEvent(context.Background(), user("a"), domain.RegisterInput{EventID: ev.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, 1, fx.store.event(ev.ID).CurrentAttendees)
	assert.Contains(t, h.messages(), "publish registration change")
}
