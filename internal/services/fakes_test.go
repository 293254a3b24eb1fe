package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"clubevents/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// capturingHandler records log records for assertions.
type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *capturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *capturingHandler) WithGroup(string) slog.Handler      { return h }

func (h *capturingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.Message)
	}
	return out
}

// fakeStore is an in-memory event and registration store. Transactions hold a single
// mutex for their whole duration and roll back on error, so concurrent workflow runs are
// serialised the way row locks serialise them in Postgres.
type fakeStore struct {
	mu            sync.Mutex
	events        map[string]*domain.Event
	registrations map[string]*domain.Registration
	nextID        int

	// failures injected by tests
	listErr   error
	getErr    error
	createErr error

	listByEventCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[string]*domain.Event),
		registrations: make(map[string]*domain.Registration),
		nextID:        1,
	}
}

func (f *fakeStore) id(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, f.nextID)
	f.nextID++
	return id
}

func (f *fakeStore) addEvent(e *domain.Event) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		e.ID = f.id("ev")
	}
	cp := *e
	f.events[e.ID] = &cp
	return e
}

func (f *fakeStore) event(id string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

func (f *fakeStore) addRegistration(r *domain.Registration) *domain.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = f.id("reg")
	}
	f.registrations[r.ID] = r.Clone()
	return r
}

func (f *fakeStore) registration(id string) *domain.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registrations[id].Clone()
}

// EventRepository

func (f *fakeStore) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.addEvent(e)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e := f.event(id); e != nil {
		return e, nil
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeStore) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*domain.Event
	for _, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		cp := *e
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			return all[i].ID < all[j].ID
		}
		return all[i].Date.Before(all[j].Date)
	})
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit()
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeStore) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.events[e.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	cp := *e
	cp.CurrentAttendees = cur.CurrentAttendees
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

// registrationRepo exposes the fakeStore as a RegistrationRepository; its GetByID returns
// registrations rather than events.
type registrationRepo struct{ *fakeStore }

func (r registrationRepo) WithinTx(ctx context.Context, fn func(tx domain.RegistrationTx) error) error {
	f := r.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make(map[string]*domain.Event, len(f.events))
	for k, v := range f.events {
		cp := *v
		events[k] = &cp
	}
	regs := make(map[string]*domain.Registration, len(f.registrations))
	for k, v := range f.registrations {
		regs[k] = v.Clone()
	}
	if err := fn(&fakeTx{store: f}); err != nil {
		f.events, f.registrations = events, regs
		return err
	}
	return nil
}

func (r registrationRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	if reg := r.registration(id); reg != nil {
		return reg, nil
	}
	return nil, domain.ErrRegistrationNotFound
}

func (r registrationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	f := r.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listByEventCalls++
	var out []*domain.Registration
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			out = append(out, reg.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationTime.Before(out[j].RegistrationTime) })
	return out, nil
}

func (r registrationRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Registration, error) {
	f := r.fakeStore
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Registration
	for _, reg := range f.registrations {
		if reg.UserID == userID {
			out = append(out, reg.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationTime.After(out[j].RegistrationTime) })
	return out, nil
}

// fakeTx runs with the store mutex held.
type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) LockEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	e, ok := t.store.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *fakeTx) LockRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	r, ok := t.store.registrations[id]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return r.Clone(), nil
}

func (t *fakeTx) FindActiveRegistration(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	for _, r := range t.store.registrations {
		if r.EventID == eventID && r.UserID == userID && r.Status.HoldsSeat() {
			return r.Clone(), nil
		}
	}
	return nil, domain.ErrRegistrationNotFound
}

func (t *fakeTx) CreateRegistration(ctx context.Context, reg *domain.Registration) error {
	for _, r := range t.store.registrations {
		if r.EventID == reg.EventID && r.UserID == reg.UserID && r.Status.HoldsSeat() {
			return domain.ErrAlreadyRegistered
		}
	}
	reg.ID = t.store.id("reg")
	t.store.registrations[reg.ID] = reg.Clone()
	return nil
}

func (t *fakeTx) UpdateRegistration(ctx context.Context, reg *domain.Registration) error {
	if _, ok := t.store.registrations[reg.ID]; !ok {
		return domain.ErrRegistrationNotFound
	}
	t.store.registrations[reg.ID] = reg.Clone()
	return nil
}

func (t *fakeTx) AdjustAttendees(ctx context.Context, eventID string, delta int, at time.Time) (int, error) {
	e, ok := t.store.events[eventID]
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	e.CurrentAttendees += delta
	if e.CurrentAttendees < 0 {
		e.CurrentAttendees = 0
	}
	e.UpdatedAt = at
	return e.CurrentAttendees, nil
}

// fakePublisher records published changes.
type fakePublisher struct {
	mu      sync.Mutex
	changes []*domain.RegistrationChange
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, change *domain.RegistrationChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.changes = append(p.changes, change)
	return nil
}

func (p *fakePublisher) published() []*domain.RegistrationChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.RegistrationChange(nil), p.changes...)
}

// fakeEmailService records which emails were requested.
type fakeEmailService struct {
	received []*domain.RegistrationEmailData
	approved []*domain.RegistrationEmailData
	err      error
}

func (f *fakeEmailService) SendRegistrationReceived(ctx context.Context, data *domain.RegistrationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.received = append(f.received, data)
	return nil
}

func (f *fakeEmailService) SendRegistrationApproved(ctx context.Context, data *domain.RegistrationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.approved = append(f.approved, data)
	return nil
}

// fakeExporter records tabular export calls.
type fakeExporter struct {
	created   []string
	writes    map[string][][]string
	ranges    []string
	createErr error
	writeErr  error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{writes: make(map[string][][]string)}
}

func (f *fakeExporter) Create(ctx context.Context, title string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, title)
	return fmt.Sprintf("doc-%d", len(f.created)), nil
}

func (f *fakeExporter) WriteRange(ctx context.Context, documentID, rng string, rows [][]string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.ranges = append(f.ranges, rng)
	f.writes[documentID] = rows
	return nil
}

func (f *fakeExporter) URL(ctx context.Context, documentID string) (string, error) {
	return "https://exports.example.com/" + documentID, nil
}

// fakeProfileRepo is an in-memory ProfileRepository.
type fakeProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.UserProfile
	createErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[string]*domain.UserProfile)}
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *domain.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byID[p.ID]; ok {
		return fmt.Errorf("%w: profile exists", domain.ErrConflict)
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, p *domain.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) RecordSignIn(ctx context.Context, id, email, displayName, photoURL string, at time.Time) (*domain.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.LastLogin = at
	if email != "" {
		p.Email = email
	}
	if displayName != "" {
		p.DisplayName = displayName
	}
	if photoURL != "" {
		p.PhotoURL = photoURL
	}
	cp := *p
	return &cp, nil
}

var errBoom = errors.New("boom")
