package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

// Memory is an in-process Store. Transactions run one at a time against a
// copy of the data that replaces the original on commit, which makes every
// transaction serializable.
type Memory struct {
	mu   sync.Mutex
	data *memData
	now  func() time.Time

	// publishMu serializes PublishPending so a batch is handed out once.
	// fn runs without mu held and may use the store.
	publishMu sync.Mutex
}

type memData struct {
	users        map[string]model.User
	services     map[string]model.Service
	availability map[string]model.Availability
	blocks       map[string]model.Block
	appointments map[string]model.Appointment
	events       []memEvent
}

type memEvent struct {
	outbox.Event
	published bool
}

func NewMemory() *Memory {
	return &Memory{
		data: &memData{
			users:        map[string]model.User{},
			services:     map[string]model.Service{},
			availability: map[string]model.Availability{},
			blocks:       map[string]model.Block{},
			appointments: map[string]model.Appointment{},
		},
		now: time.Now,
	}
}

func (d *memData) clone() *memData {
	return &memData{
		users:        maps.Clone(d.users),
		services:     maps.Clone(d.services),
		availability: maps.Clone(d.availability),
		blocks:       maps.Clone(d.blocks),
		appointments: maps.Clone(d.appointments),
		events:       slices.Clone(d.events),
	}
}

func (m *Memory) InTx(ctx context.Context, _ Isolation, fn func(Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.data.clone()
	if err := fn(memQueries{d: work, now: m.now}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *Memory) PublishPending(ctx context.Context, limit int, fn func(context.Context, []outbox.Event) error) error {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	var idx []int
	var batch []outbox.Event
	for i, e := range m.data.events {
		if len(batch) == limit {
			break
		}
		if !e.published {
			idx = append(idx, i)
			batch = append(batch, e.Event)
		}
	}
	m.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := fn(ctx, batch); err != nil {
		return err
	}

	// Events are append only, so the indices still hold after any InTx swap.
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range idx {
		m.data.events[i].published = true
	}
	return nil
}

// PendingEvents returns the events not yet handed to a publisher.
func (m *Memory) PendingEvents() []outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Event
	for _, e := range m.data.events {
		if !e.published {
			out = append(out, e.Event)
		}
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

func (m *Memory) q() memQueries { return memQueries{d: m.data, now: m.now} }

func (m *Memory) GetUser(ctx context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetUser(ctx, id)
}

func (m *Memory) ListProviders(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListProviders(ctx)
}

func (m *Memory) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateUser(ctx, u)
}

func (m *Memory) UpdateProviderConfig(ctx context.Context, providerID string, cfg model.ProviderConfig) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().UpdateProviderConfig(ctx, providerID, cfg)
}

func (m *Memory) GetService(ctx context.Context, id string) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetService(ctx, id)
}

func (m *Memory) ListServices(ctx context.Context, providerID string) ([]model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListServices(ctx, providerID)
}

func (m *Memory) CreateService(ctx context.Context, s model.Service) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateService(ctx, s)
}

func (m *Memory) DeleteService(ctx context.Context, providerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().DeleteService(ctx, providerID, id)
}

func (m *Memory) ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListAvailability(ctx, providerID)
}

func (m *Memory) ListAvailabilityByWeekday(ctx context.Context, providerID string, weekday int) ([]model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListAvailabilityByWeekday(ctx, providerID, weekday)
}

func (m *Memory) CreateAvailability(ctx context.Context, a model.Availability) (model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateAvailability(ctx, a)
}

func (m *Memory) DeleteAvailability(ctx context.Context, providerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().DeleteAvailability(ctx, providerID, id)
}

func (m *Memory) ListBlocks(ctx context.Context, providerID string) ([]model.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListBlocks(ctx, providerID)
}

func (m *Memory) ListBlocksBetween(ctx context.Context, providerID string, from, to time.Time) ([]model.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListBlocksBetween(ctx, providerID, from, to)
}

func (m *Memory) CreateBlock(ctx context.Context, b model.Block) (model.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateBlock(ctx, b)
}

func (m *Memory) DeleteBlock(ctx context.Context, providerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().DeleteBlock(ctx, providerID, id)
}

func (m *Memory) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().GetAppointment(ctx, id)
}

func (m *Memory) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	return m.GetAppointment(ctx, id)
}

func (m *Memory) ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListProviderAppointments(ctx, providerID, from, to)
}

func (m *Memory) ListCustomerAppointmentsBetween(ctx context.Context, customerID string, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListCustomerAppointmentsBetween(ctx, customerID, from, to)
}

func (m *Memory) ListCustomerAppointments(ctx context.Context, customerID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListCustomerAppointments(ctx, customerID)
}

func (m *Memory) ListDueAppointments(ctx context.Context, f DueFilter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().ListDueAppointments(ctx, f)
}

func (m *Memory) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().CreateAppointment(ctx, a)
}

func (m *Memory) TransitionAppointment(ctx context.Context, id string, from, to model.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().TransitionAppointment(ctx, id, from, to)
}

func (m *Memory) InsertEvent(ctx context.Context, e outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q().InsertEvent(ctx, e)
}

var _ Store = (*Memory)(nil)

// memQueries operates on data the caller has exclusive access to.
type memQueries struct {
	d   *memData
	now func() time.Time
}

func (q memQueries) GetUser(_ context.Context, id string) (model.User, error) {
	u, ok := q.d.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (q memQueries) ListProviders(context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range q.d.users {
		if u.IsProvider {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (q memQueries) CreateUser(_ context.Context, u model.User) (model.User, error) {
	for _, existing := range q.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, fmt.Errorf("%w: email %s", ErrDuplicate, u.Email)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.MaxBookingDays == 0 {
		u.MaxBookingDays = model.DefaultMaxBookingDays
	}
	if u.CancelBookingHours == 0 {
		u.CancelBookingHours = model.DefaultCancelBookingHours
	}
	u.CreatedAt = q.now().UTC()
	q.d.users[u.ID] = u
	return u, nil
}

func (q memQueries) UpdateProviderConfig(_ context.Context, providerID string, cfg model.ProviderConfig) (model.User, error) {
	u, ok := q.d.users[providerID]
	if !ok || !u.IsProvider {
		return model.User{}, ErrNotFound
	}
	u.MaxBookingDays = cfg.MaxBookingDays
	u.CancelBookingHours = cfg.CancelBookingHours
	q.d.users[providerID] = u
	return u, nil
}

func (q memQueries) GetService(_ context.Context, id string) (model.Service, error) {
	s, ok := q.d.services[id]
	if !ok {
		return model.Service{}, ErrNotFound
	}
	return s, nil
}

func (q memQueries) ListServices(_ context.Context, providerID string) ([]model.Service, error) {
	out := filter(q.d.services, func(s model.Service) bool { return s.ProviderID == providerID })
	slices.SortFunc(out, func(a, b model.Service) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (q memQueries) CreateService(_ context.Context, s model.Service) (model.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = q.now().UTC()
	q.d.services[s.ID] = s
	return s, nil
}

func (q memQueries) DeleteService(_ context.Context, providerID, id string) error {
	s, ok := q.d.services[id]
	if !ok || s.ProviderID != providerID {
		return ErrNotFound
	}
	delete(q.d.services, id)
	for aid, a := range q.d.appointments {
		if a.ServiceID == id {
			a.ServiceID = ""
			q.d.appointments[aid] = a
		}
	}
	return nil
}

func (q memQueries) ListAvailability(_ context.Context, providerID string) ([]model.Availability, error) {
	out := filter(q.d.availability, func(a model.Availability) bool { return a.ProviderID == providerID })
	slices.SortFunc(out, func(a, b model.Availability) int {
		if a.Weekday != b.Weekday {
			return a.Weekday - b.Weekday
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return out, nil
}

func (q memQueries) ListAvailabilityByWeekday(ctx context.Context, providerID string, weekday int) ([]model.Availability, error) {
	all, _ := q.ListAvailability(ctx, providerID)
	return slices.DeleteFunc(all, func(a model.Availability) bool { return a.Weekday != weekday }), nil
}

func (q memQueries) CreateAvailability(_ context.Context, a model.Availability) (model.Availability, error) {
	for _, existing := range q.d.availability {
		if existing.ProviderID == a.ProviderID && existing.Weekday == a.Weekday {
			return model.Availability{}, fmt.Errorf("%w: weekday %d", ErrDuplicate, a.Weekday)
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = q.now().UTC()
	q.d.availability[a.ID] = a
	return a, nil
}

func (q memQueries) DeleteAvailability(_ context.Context, providerID, id string) error {
	a, ok := q.d.availability[id]
	if !ok || a.ProviderID != providerID {
		return ErrNotFound
	}
	delete(q.d.availability, id)
	return nil
}

func (q memQueries) ListBlocks(_ context.Context, providerID string) ([]model.Block, error) {
	out := filter(q.d.blocks, func(b model.Block) bool { return b.ProviderID == providerID })
	slices.SortFunc(out, func(a, b model.Block) int { return a.StartAt.Compare(b.StartAt) })
	return out, nil
}

func (q memQueries) ListBlocksBetween(ctx context.Context, providerID string, from, to time.Time) ([]model.Block, error) {
	all, _ := q.ListBlocks(ctx, providerID)
	return slices.DeleteFunc(all, func(b model.Block) bool {
		return !(b.StartAt.Before(to) && b.EndAt.After(from))
	}), nil
}

func (q memQueries) CreateBlock(_ context.Context, b model.Block) (model.Block, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = q.now().UTC()
	q.d.blocks[b.ID] = b
	return b, nil
}

func (q memQueries) DeleteBlock(_ context.Context, providerID, id string) error {
	b, ok := q.d.blocks[id]
	if !ok || b.ProviderID != providerID {
		return ErrNotFound
	}
	delete(q.d.blocks, id)
	return nil
}

// resolve fills ServiceDuration the way the SQL join does.
func (q memQueries) resolve(a model.Appointment) model.Appointment {
	a.ServiceDuration = nil
	if s, ok := q.d.services[a.ServiceID]; ok {
		d := s.Duration
		a.ServiceDuration = &d
	}
	return a
}

func (q memQueries) appointments(keep func(model.Appointment) bool) []model.Appointment {
	var out []model.Appointment
	for _, a := range q.d.appointments {
		if keep(a) {
			out = append(out, q.resolve(a))
		}
	}
	slices.SortFunc(out, func(a, b model.Appointment) int { return a.Date.Compare(b.Date) })
	return out
}

func inRange(t, from, to time.Time) bool { return !t.Before(from) && t.Before(to) }

func (q memQueries) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	a, ok := q.d.appointments[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return q.resolve(a), nil
}

func (q memQueries) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	return q.GetAppointment(ctx, id)
}

func (q memQueries) ListProviderAppointments(_ context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	return q.appointments(func(a model.Appointment) bool {
		return a.ProviderID == providerID && a.Status != model.StatusCanceled && inRange(a.Date, from, to)
	}), nil
}

func (q memQueries) ListCustomerAppointmentsBetween(_ context.Context, customerID string, from, to time.Time) ([]model.Appointment, error) {
	return q.appointments(func(a model.Appointment) bool {
		return a.CustomerID == customerID && a.Status != model.StatusCanceled && inRange(a.Date, from, to)
	}), nil
}

func (q memQueries) ListCustomerAppointments(_ context.Context, customerID string) ([]model.Appointment, error) {
	return q.appointments(func(a model.Appointment) bool { return a.CustomerID == customerID }), nil
}

func (q memQueries) ListDueAppointments(_ context.Context, f DueFilter) ([]model.Appointment, error) {
	out := q.appointments(func(a model.Appointment) bool {
		return !a.Status.Terminal() &&
			!a.Date.After(f.Before) &&
			(f.CustomerID == "" || a.CustomerID == f.CustomerID) &&
			(f.ProviderID == "" || a.ProviderID == f.ProviderID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (q memQueries) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	now := q.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	a.ServiceDuration = nil
	q.d.appointments[a.ID] = a
	return q.GetAppointment(ctx, a.ID)
}

func (q memQueries) TransitionAppointment(_ context.Context, id string, from, to model.Status) (bool, error) {
	a, ok := q.d.appointments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = q.now().UTC()
	q.d.appointments[id] = a
	return true, nil
}

func (q memQueries) InsertEvent(_ context.Context, e outbox.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = q.now().UTC()
	q.d.events = append(q.d.events, memEvent{Event: e})
	return nil
}

func filter[T any](m map[string]T, keep func(T) bool) []T {
	var out []T
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
