package repository

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

var errDuplicateInvoice = errors.New("memory: duplicate invoice number")
var errDuplicateEmail = errors.New("memory: duplicate user email")

type memState struct {
	seq uint

	services      map[uint]models.Service
	clients       map[uint]models.Client
	hours         map[int]models.WorkingHours
	blocks        map[uint]models.BlockedSlot
	appointments  map[uint]models.Appointment
	profiles      map[uint]models.LoyaltyProfile // por client_id
	history       []models.LoyaltyHistory
	discounts     map[uint]models.Discount
	notifications map[uint]models.Notification
	auditLogs     []models.AuditLog
	users         map[uint]models.User
}

func newMemState() *memState {
	return &memState{
		services:      map[uint]models.Service{},
		clients:       map[uint]models.Client{},
		hours:         map[int]models.WorkingHours{},
		blocks:        map[uint]models.BlockedSlot{},
		appointments:  map[uint]models.Appointment{},
		profiles:      map[uint]models.LoyaltyProfile{},
		discounts:     map[uint]models.Discount{},
		notifications: map[uint]models.Notification{},
		users:         map[uint]models.User{},
	}
}

// clone copies every table. Rows are stored by value and slices inside
// them are copied on write, so a shallow map copy is enough.
func (s *memState) clone() *memState {
	return &memState{
		seq:           s.seq,
		services:      maps.Clone(s.services),
		clients:       maps.Clone(s.clients),
		hours:         maps.Clone(s.hours),
		blocks:        maps.Clone(s.blocks),
		appointments:  maps.Clone(s.appointments),
		profiles:      maps.Clone(s.profiles),
		history:       slices.Clone(s.history),
		discounts:     maps.Clone(s.discounts),
		notifications: maps.Clone(s.notifications),
		auditLogs:     slices.Clone(s.auditLogs),
		users:         maps.Clone(s.users),
	}
}

func (s *memState) nextID() uint {
	s.seq++
	return s.seq
}

// MemoryStore is the in-process implementation of the repository ports,
// used by STORAGE_DRIVER=memory and by tests. Transactions run one at a time
// on a copy of the state that replaces it only on success.
type MemoryStore struct {
	mu *sync.Mutex
	st *memState
	tx bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, st: newMemState()}
}

func (m *MemoryStore) lock() func() {
	if m.tx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	unlock := m.lock()
	defer unlock()

	draft := m.st.clone()
	if err := fn(&MemoryStore{mu: m.mu, st: draft, tx: true}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	*m.st = *draft
	return nil
}

func (m *MemoryStore) now() time.Time {
	return time.Now()
}

// ======================================================
// LOCKS
// ======================================================

// Transactions are already serialized by the store mutex.
func (m *MemoryStore) LockDate(context.Context, time.Time) error { return nil }

func (m *MemoryStore) LockInvoiceMonth(context.Context, time.Time) error { return nil }

func (m *MemoryStore) LockBirthdayYear(context.Context, int) error { return nil }

// ======================================================
// CALENDAR
// ======================================================

func (m *MemoryStore) GetWorkingHours(_ context.Context, weekday int) (*models.WorkingHours, error) {
	defer m.lock()()

	wh, ok := m.st.hours[weekday]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	return &wh, nil
}

func (m *MemoryStore) ListWorkingHours(context.Context) ([]models.WorkingHours, error) {
	defer m.lock()()

	out := make([]models.WorkingHours, 0, len(m.st.hours))
	for _, wh := range m.st.hours {
		out = append(out, wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (m *MemoryStore) ReplaceWorkingHours(_ context.Context, hours []models.WorkingHours) error {
	defer m.lock()()

	m.st.hours = map[int]models.WorkingHours{}
	for i := range hours {
		hours[i].ID = m.st.nextID()
		m.st.hours[hours[i].Weekday] = hours[i]
	}
	return nil
}

func (m *MemoryStore) ListBlockedSlots(_ context.Context, date time.Time) ([]models.BlockedSlot, error) {
	defer m.lock()()

	day := dateParam(date)
	out := []models.BlockedSlot{}
	for _, b := range m.st.blocks {
		if dateParam(b.Date) == day {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *MemoryStore) CreateBlockedSlot(_ context.Context, b *models.BlockedSlot) error {
	defer m.lock()()

	b.ID = m.st.nextID()
	b.CreatedAt = m.now()
	m.st.blocks[b.ID] = *b
	return nil
}

func (m *MemoryStore) DeleteBlockedSlot(_ context.Context, id uint) error {
	defer m.lock()()

	if _, ok := m.st.blocks[id]; !ok {
		return httperr.ErrNotFound
	}
	delete(m.st.blocks, id)
	return nil
}

// ======================================================
// CATALOG
// ======================================================

func (m *MemoryStore) ListServices(context.Context) ([]models.Service, error) {
	defer m.lock()()

	out := make([]models.Service, 0, len(m.st.services))
	for _, s := range m.st.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetService(_ context.Context, id uint) (*models.Service, error) {
	defer m.lock()()

	s, ok := m.st.services[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) CreateService(_ context.Context, s *models.Service) error {
	defer m.lock()()

	s.ID = m.st.nextID()
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.st.services[s.ID] = *s
	return nil
}

func (m *MemoryStore) UpdateService(_ context.Context, s *models.Service) error {
	defer m.lock()()

	if _, ok := m.st.services[s.ID]; !ok {
		return httperr.ErrNotFound
	}
	s.UpdatedAt = m.now()
	m.st.services[s.ID] = *s
	return nil
}

// ======================================================
// CLIENTS
// ======================================================

func (m *MemoryStore) GetClient(_ context.Context, id uint) (*models.Client, error) {
	defer m.lock()()

	c, ok := m.st.clients[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) FindClientByPhone(_ context.Context, phone string) (*models.Client, error) {
	defer m.lock()()

	for _, c := range m.st.clients {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, httperr.ErrNotFound
}

func (m *MemoryStore) FindClientByReferralCode(_ context.Context, code string) (*models.Client, error) {
	defer m.lock()()

	code = strings.ToUpper(code)
	for _, c := range m.st.clients {
		if c.ReferralCode == code {
			return &c, nil
		}
	}
	return nil, httperr.ErrNotFound
}

func (m *MemoryStore) CreateClient(_ context.Context, c *models.Client) error {
	defer m.lock()()

	for _, other := range m.st.clients {
		if (c.Phone != "" && other.Phone == c.Phone) ||
			(c.ReferralCode != "" && other.ReferralCode == c.ReferralCode) {
			return httperr.ErrBusiness(httperr.CodeClientAlreadyExists)
		}
	}

	c.ID = m.st.nextID()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.st.clients[c.ID] = *c
	return nil
}

func (m *MemoryStore) ListClients(_ context.Context, query string) ([]models.Client, error) {
	defer m.lock()()

	query = strings.ToLower(strings.TrimSpace(query))
	out := []models.Client{}
	for _, c := range m.st.clients {
		if query == "" ||
			strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(c.Phone, query) ||
			strings.Contains(strings.ToLower(c.Email), query) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListClientsWithBirthday(
	_ context.Context,
	month time.Month,
	day int,
) ([]models.Client, error) {
	defer m.lock()()

	out := []models.Client{}
	for _, c := range m.st.clients {
		if c.Birthday != nil && c.Birthday.Month() == month && c.Birthday.Day() == day {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ======================================================
// APPOINTMENTS
// ======================================================

func (m *MemoryStore) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	defer m.lock()()

	ap.ID = m.st.nextID()
	ap.CreatedAt = m.now()
	ap.UpdatedAt = ap.CreatedAt
	if ap.Status == "" {
		ap.Status = string(domain.InitialStatus())
	}
	if ap.PaymentStatus == "" {
		ap.PaymentStatus = string(domain.PaymentUnpaid)
	}

	for i := range ap.Services {
		ap.Services[i].ID = m.st.nextID()
		ap.Services[i].AppointmentID = ap.ID
	}

	row := *ap
	row.Services = slices.Clone(ap.Services)
	m.st.appointments[ap.ID] = row
	return nil
}

// withDetails mimics the preloads of the gorm repository.
func (m *MemoryStore) withDetails(ap models.Appointment) models.Appointment {
	ap.Client = m.st.clients[ap.ClientID]

	services := slices.Clone(ap.Services)
	sort.Slice(services, func(i, j int) bool { return services[i].Position < services[j].Position })
	for i := range services {
		services[i].Service = m.st.services[services[i].ServiceID]
	}
	ap.Services = services
	return ap
}

func (m *MemoryStore) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	defer m.lock()()

	ap, ok := m.st.appointments[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	out := m.withDetails(ap)
	return &out, nil
}

func (m *MemoryStore) GetAppointmentForUpdate(ctx context.Context, id uint) (*models.Appointment, error) {
	return m.GetAppointment(ctx, id)
}

func (m *MemoryStore) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	defer m.lock()()

	stored, ok := m.st.appointments[ap.ID]
	if !ok {
		return httperr.ErrNotFound
	}

	if ap.InvoiceNumber != nil {
		for id, other := range m.st.appointments {
			if id != ap.ID && other.InvoiceNumber != nil && *other.InvoiceNumber == *ap.InvoiceNumber {
				return errDuplicateInvoice
			}
		}
	}

	row := *ap
	row.Client = models.Client{}
	row.Services = stored.Services
	row.UpdatedAt = m.now()
	m.st.appointments[ap.ID] = row
	return nil
}

func (m *MemoryStore) ListAppointmentsForPeriod(
	_ context.Context,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {
	defer m.lock()()

	from, to := dateParam(start), dateParam(end)
	out := []models.Appointment{}
	for _, ap := range m.st.appointments {
		d := dateParam(ap.Date)
		if d >= from && d < to {
			out = append(out, m.withDetails(ap))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := dateParam(out[i].Date), dateParam(out[j].Date)
		if di != dj {
			return di < dj
		}
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, nil
}

func (m *MemoryStore) CountPaidAppointments(_ context.Context, clientID, excludeID uint) (int64, error) {
	defer m.lock()()

	var n int64
	for _, ap := range m.st.appointments {
		if ap.ClientID == clientID && ap.ID != excludeID && ap.PaymentStatus != string(domain.PaymentUnpaid) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountInvoicesWithPrefix(_ context.Context, prefix string) (int64, error) {
	defer m.lock()()

	var n int64
	for _, ap := range m.st.appointments {
		if ap.InvoiceNumber != nil && strings.HasPrefix(*ap.InvoiceNumber, prefix) {
			n++
		}
	}
	return n, nil
}

// ======================================================
// LOYALTY
// ======================================================

func (m *MemoryStore) GetProfileForUpdate(_ context.Context, clientID uint) (*models.LoyaltyProfile, error) {
	defer m.lock()()

	p, ok := m.st.profiles[clientID]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, p *models.LoyaltyProfile) error {
	defer m.lock()()

	if p.ID == 0 {
		if _, exists := m.st.profiles[p.ClientID]; exists {
			return errors.New("memory: duplicate loyalty profile")
		}
		p.ID = m.st.nextID()
		p.CreatedAt = m.now()
	}
	p.UpdatedAt = m.now()
	m.st.profiles[p.ClientID] = *p
	return nil
}

func (m *MemoryStore) HasHistory(_ context.Context, appointmentID uint, actions []string) (bool, error) {
	defer m.lock()()

	for _, e := range m.st.history {
		if e.AppointmentID != nil && *e.AppointmentID == appointmentID && slices.Contains(actions, e.Action) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) AppendHistory(_ context.Context, e *models.LoyaltyHistory) error {
	defer m.lock()()

	e.ID = m.st.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.st.history = append(m.st.history, *e)
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, f loyalty.HistoryFilter) ([]models.LoyaltyHistory, int64, error) {
	defer m.lock()()

	matched := []models.LoyaltyHistory{}
	for _, e := range m.st.history {
		if f.ClientID != 0 && e.ClientID != f.ClientID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.CreatedAt.Before(*f.To) {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return page(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func (m *MemoryStore) ListDiscounts(_ context.Context, clientID uint) ([]models.Discount, error) {
	defer m.lock()()

	out := []models.Discount{}
	for _, d := range m.st.discounts {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetDiscountForUpdate(_ context.Context, id uint) (*models.Discount, error) {
	defer m.lock()()

	d, ok := m.st.discounts[id]
	if !ok {
		return nil, httperr.ErrNotFound
	}
	return &d, nil
}

func (m *MemoryStore) CreateDiscount(_ context.Context, d *models.Discount) error {
	defer m.lock()()

	d.ID = m.st.nextID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = m.now()
	}
	d.UpdatedAt = d.CreatedAt
	m.st.discounts[d.ID] = *d
	return nil
}

func (m *MemoryStore) SaveDiscount(_ context.Context, d *models.Discount) error {
	defer m.lock()()

	if _, ok := m.st.discounts[d.ID]; !ok {
		return httperr.ErrNotFound
	}
	d.UpdatedAt = m.now()
	m.st.discounts[d.ID] = *d
	return nil
}

func (m *MemoryStore) FindPendingReferralDiscount(
	_ context.Context,
	sponsorID uint,
	referredClientID uint,
) (*models.Discount, error) {
	defer m.lock()()

	var found *models.Discount
	for _, d := range m.st.discounts {
		if d.ClientID != sponsorID || d.Type != loyalty.TypeReferralSponsor || d.Status != loyalty.StatusPending {
			continue
		}
		if d.ReferredClientID == nil || *d.ReferredClientID != referredClientID {
			continue
		}
		if found == nil || d.ID < found.ID {
			found = &d
		}
	}
	if found == nil {
		return nil, httperr.ErrNotFound
	}
	return found, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	defer m.lock()()

	n.ID = m.st.nextID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.st.notifications[n.ID] = *n
	return nil
}

func (m *MemoryStore) MarkNotificationsDispatched(_ context.Context, ids []uint, at time.Time) error {
	defer m.lock()()

	for _, id := range ids {
		n, ok := m.st.notifications[id]
		if !ok {
			continue
		}
		stamp := at
		n.DispatchedAt = &stamp
		m.st.notifications[id] = n
	}
	return nil
}

// Notifications lists every notification row, oldest first.
func (m *MemoryStore) Notifications() []models.Notification {
	defer m.lock()()

	out := make([]models.Notification, 0, len(m.st.notifications))
	for _, n := range m.st.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ======================================================
// AUDIT + USERS
// ======================================================

func (m *MemoryStore) CreateAuditLog(_ context.Context, l *models.AuditLog) error {
	defer m.lock()()

	l.ID = m.st.nextID()
	l.CreatedAt = m.now()
	m.st.auditLogs = append(m.st.auditLogs, *l)
	return nil
}

func (m *MemoryStore) ListAuditLogs(_ context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	defer m.lock()()

	matched := []models.AuditLog{}
	for i := len(m.st.auditLogs) - 1; i >= 0; i-- {
		l := m.st.auditLogs[i]
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.Entity != "" && l.Entity != f.Entity {
			continue
		}
		if f.From != nil && l.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !l.CreatedAt.Before(*f.To) {
			continue
		}
		matched = append(matched, l)
	}
	return page(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (m *MemoryStore) CountUsers(context.Context) (int64, error) {
	defer m.lock()()
	return int64(len(m.st.users)), nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer m.lock()()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, httperr.ErrNotFound
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	defer m.lock()()

	for _, other := range m.st.users {
		if other.Email == u.Email {
			return errDuplicateEmail
		}
	}
	u.ID = m.st.nextID()
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.st.users[u.ID] = *u
	return nil
}

var (
	_ domain.Repository = (*MemoryStore)(nil)
	_ audit.Store       = (*MemoryStore)(nil)
)
