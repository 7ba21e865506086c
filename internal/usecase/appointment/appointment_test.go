package appointment

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

type fixture struct {
	ctx    context.Context
	store  *repository.MemoryStore
	client *models.Client

	cut     *models.Service // 60 min
	colour  *models.Service // 90 min
	forfait *models.Service // 120 min, package price

	monday time.Time
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := repository.NewMemoryStore()
	loc := timezone.Location()

	f := &fixture{
		ctx:    ctx,
		store:  store,
		monday: time.Date(2026, 3, 2, 0, 0, 0, 0, loc),
		now:    time.Date(2026, 3, 1, 10, 0, 0, 0, loc),
	}

	f.cut = &models.Service{Name: "Coupe", DurationMin: 60, Price: decimal.NewFromInt(25), Active: true}
	f.colour = &models.Service{Name: "Coloration", DurationMin: 90, Price: decimal.NewFromInt(60), Active: true}
	f.forfait = &models.Service{
		Name:         "Forfait mariage",
		DurationMin:  120,
		Price:        decimal.NewFromInt(100),
		PackagePrice: decimal.NewNullDecimal(decimal.NewFromInt(80)),
		Active:       true,
	}
	for _, s := range []*models.Service{f.cut, f.colour, f.forfait} {
		require.NoError(t, store.CreateService(ctx, s))
	}

	require.NoError(t, store.ReplaceWorkingHours(ctx, []models.WorkingHours{
		{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "18:00"},
	}))

	f.client = &models.Client{Name: "Ana", Phone: "0600000001", ReferralCode: "ANA00001"}
	require.NoError(t, store.CreateClient(ctx, f.client))

	return f
}

func (f *fixture) reserver() *CheckAndReserve {
	uc := NewCheckAndReserve(f.store, nil, nil, time.Hour)
	uc.now = func() time.Time { return f.now }
	return uc
}

func (f *fixture) reserve(t *testing.T, start int, services ...ServiceSelection) *ReserveResult {
	t.Helper()
	res, err := f.reserver().Execute(f.ctx, ReserveInput{
		ClientID:    f.client.ID,
		Date:        f.monday,
		StartMinute: start,
		Services:    services,
	})
	require.NoError(t, err)
	return res
}

func one(s *models.Service) ServiceSelection {
	return ServiceSelection{ServiceID: s.ID}
}

// ======================================================
// RESERVE
// ======================================================

func TestCheckAndReserve_ConflictSuggestsEndOfExisting(t *testing.T) {
	f := newFixture(t)

	first := f.reserve(t, 600, one(f.cut))
	require.True(t, first.Accepted)
	assert.Equal(t, 75, first.Appointment.DurationMin)
	assert.True(t, first.Appointment.TotalPrice.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, string(domain.StatusPending), first.Appointment.Status)

	second := f.reserve(t, 630, one(f.colour))
	assert.False(t, second.Accepted)
	assert.Equal(t, scheduling.ReasonSlotConflict, second.Reason)
	assert.Equal(t, 675, second.SuggestedMinute)
	assert.Equal(t, first.Appointment.ID, second.ConflictWith)
	assert.Nil(t, second.Appointment)

	retry := f.reserve(t, second.SuggestedMinute, one(f.colour))
	assert.True(t, retry.Accepted)
}

func TestCheckAndReserve_OutsideWorkingHours(t *testing.T) {
	f := newFixture(t)

	res := f.reserve(t, 17*60+30, one(f.cut))
	assert.False(t, res.Accepted)
	assert.Equal(t, scheduling.ReasonOutsideWorkingHours, res.Reason)
	assert.Equal(t, scheduling.NoSuggestion, res.SuggestedMinute)

	// domingo sem expediente
	res, err := f.reserver().Execute(f.ctx, ReserveInput{
		ClientID:    f.client.ID,
		Date:        f.monday.AddDate(0, 0, 6),
		StartMinute: 600,
		Services:    []ServiceSelection{one(f.cut)},
	})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, scheduling.ReasonOutsideWorkingHours, res.Reason)
}

func TestCheckAndReserve_BlockedRangeSuggestsItsEnd(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.CreateBlockedSlot(f.ctx, &models.BlockedSlot{
		Date: f.monday, StartTime: "12:00", EndTime: "13:00", Reason: "formation",
	}))

	res := f.reserve(t, 11*60+30, one(f.cut))
	assert.False(t, res.Accepted)
	assert.Equal(t, scheduling.ReasonOutsideWorkingHours, res.Reason)
	assert.Equal(t, 13*60, res.SuggestedMinute)
}

func TestCheckAndReserve_Validation(t *testing.T) {
	f := newFixture(t)
	uc := f.reserver()

	_, err := uc.Execute(f.ctx, ReserveInput{ClientID: f.client.ID, Date: f.monday, StartMinute: 600})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeEmptySelection))

	_, err = uc.Execute(f.ctx, ReserveInput{
		ClientID: f.client.ID, Date: f.monday, StartMinute: 600,
		Services: []ServiceSelection{{ServiceID: 999}},
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnknownService))

	_, err = uc.Execute(f.ctx, ReserveInput{
		ClientID: f.client.ID, Date: f.monday, StartMinute: 600,
		Services: []ServiceSelection{{ServiceID: f.cut.ID, Package: true}},
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotAPackage))

	_, err = uc.Execute(f.ctx, ReserveInput{
		ClientID: 999, Date: f.monday, StartMinute: 600,
		Services: []ServiceSelection{one(f.cut)},
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeClientNotFound))

	list, err := f.store.ListAppointmentsForPeriod(f.ctx, f.monday, f.monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, list, "rejected input writes nothing")
}

func TestCheckAndReserve_TooSoon(t *testing.T) {
	f := newFixture(t)
	f.now = f.monday.Add(9*time.Hour + 30*time.Minute)

	_, err := f.reserver().Execute(f.ctx, ReserveInput{
		ClientID: f.client.ID, Date: f.monday, StartMinute: 600,
		Services: []ServiceSelection{one(f.cut)},
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeTooSoon))

	res := f.reserve(t, 11*60, one(f.cut))
	assert.True(t, res.Accepted)
}

func TestCheckAndReserve_PackageFlagAndPrice(t *testing.T) {
	f := newFixture(t)

	res := f.reserve(t, 540,
		ServiceSelection{ServiceID: f.forfait.ID, Package: true},
		one(f.cut),
	)
	require.True(t, res.Accepted)

	ap := res.Appointment
	assert.True(t, ap.IsPackage)
	assert.Equal(t, models.PackageFlagFromBooking, ap.PackageFlagSource)
	assert.True(t, ap.TotalPrice.Equal(decimal.NewFromInt(105)), "package price + base price")
	assert.Equal(t, 120+60+scheduling.PreparationBufferMinutes, ap.DurationMin)
	assert.Equal(t, []uint{f.forfait.ID, f.cut.ID}, ap.ServiceIDs())

	// sem marcador o nome "forfait" não torna o agendamento um pacote
	res = f.reserve(t, 14*60, one(f.forfait))
	require.True(t, res.Accepted)
	assert.False(t, res.Appointment.IsPackage)
}

func TestCheckAndReserve_CancelledFreesTheSlot(t *testing.T) {
	f := newFixture(t)

	first := f.reserve(t, 600, one(f.cut))
	require.True(t, first.Accepted)

	_, err := NewChangeStatus(f.store, nil).Execute(f.ctx, nil, first.Appointment.ID, ActionCancel)
	require.NoError(t, err)

	again := f.reserve(t, 600, one(f.cut))
	assert.True(t, again.Accepted)
}

func TestCheckAndReserve_AcceptedIntervalsStayDisjoint(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))
	services := []*models.Service{f.cut, f.colour, f.forfait}

	for i := 0; i < 200; i++ {
		start := 9*60 + rng.Intn(9*60/5)*5
		f.reserve(t, start, one(services[rng.Intn(len(services))]))
	}

	list, err := f.store.ListAppointmentsForPeriod(f.ctx, f.monday, f.monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.NotEmpty(t, list)

	sort.Slice(list, func(i, j int) bool { return list[i].StartMinute < list[j].StartMinute })
	for i := 1; i < len(list); i++ {
		prevEnd := list[i-1].StartMinute + list[i-1].DurationMin
		assert.LessOrEqual(t, prevEnd, list[i].StartMinute)
	}
}

func TestCheckAndReserve_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t)
	uc := f.reserver()

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Execute(f.ctx, ReserveInput{
				ClientID: f.client.ID, Date: f.monday, StartMinute: 600,
				Services: []ServiceSelection{one(f.cut)},
			})
			if err != nil || !res.Accepted {
				return
			}
			mu.Lock()
			accepted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

// ======================================================
// PUBLIC BOOKING
// ======================================================

func TestBookPublic_ReusesClientByPhone(t *testing.T) {
	f := newFixture(t)
	uc := NewBookPublic(f.store, f.reserver())

	res, err := uc.Execute(f.ctx, BookPublicInput{
		ClientName: "Bea", ClientPhone: "0600000002",
		Date: f.monday, StartMinute: 600, Services: []ServiceSelection{one(f.cut)},
	})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = uc.Execute(f.ctx, BookPublicInput{
		ClientName: "Bea", ClientPhone: "0600000002",
		Date: f.monday, StartMinute: 14 * 60, Services: []ServiceSelection{one(f.cut)},
	})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	clients, err := f.store.ListClients(f.ctx, "0600000002")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.NotEmpty(t, clients[0].ReferralCode)
}

// ======================================================
// COMPLETE
// ======================================================

type recordingPublisher struct {
	mu  sync.Mutex
	got []models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, ns []models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ns...)
	return nil
}

func (f *fixture) completer(pub *recordingPublisher) *CompleteAppointment {
	uc := NewCompleteAppointment(f.store, nil, nil, pub)
	uc.now = func() time.Time { return f.monday.Add(11 * time.Hour) }
	return uc
}

func TestCompleteAppointment_FifthServiceGrantsFidelityDiscount(t *testing.T) {
	f := newFixture(t)

	profile := loyalty.NewProfile(f.client.ID)
	profile.IndividualServicesCount = 4
	require.NoError(t, f.store.SaveProfile(f.ctx, profile))

	res := f.reserve(t, 600, one(f.cut))
	require.True(t, res.Accepted)

	pub := &recordingPublisher{}
	ap, err := f.completer(pub).Execute(f.ctx, nil, res.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), ap.Status)

	got, err := f.store.GetProfileForUpdate(f.ctx, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.IndividualServicesCount, "reset waits for redemption")

	discounts, err := f.store.ListDiscounts(f.ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, loyalty.TypeFidelityService, discounts[0].Type)
	assert.Equal(t, loyalty.StatusAvailable, discounts[0].Status)
	assert.True(t, discounts[0].Amount.Equal(decimal.NewFromInt(20)))

	require.Len(t, pub.got, 1)
	assert.Equal(t, loyalty.NotifyFidelityDiscountAvailable, pub.got[0].Kind)

	stored := f.store.Notifications()
	require.Len(t, stored, 1)
	assert.NotNil(t, stored[0].DispatchedAt)
}

func TestCompleteAppointment_SecondCallChangesNothing(t *testing.T) {
	f := newFixture(t)

	res := f.reserve(t, 600, ServiceSelection{ServiceID: f.forfait.ID, Package: true})
	require.True(t, res.Accepted)

	uc := f.completer(&recordingPublisher{})
	_, err := uc.Execute(f.ctx, nil, res.Appointment.ID)
	require.NoError(t, err)

	_, err = uc.Execute(f.ctx, nil, res.Appointment.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAlreadyCompleted))

	p, err := f.store.GetProfileForUpdate(f.ctx, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.PackagesCount)
	assert.Equal(t, 0, p.IndividualServicesCount)

	history, total, err := f.store.ListHistory(f.ctx, loyalty.HistoryFilter{
		ClientID: f.client.ID,
		Action:   loyalty.ActionPackageCompleted,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, history, 1)
}

func TestCompleteAppointment_ExistingEntryGuardsLedger(t *testing.T) {
	f := newFixture(t)

	res := f.reserve(t, 600, one(f.cut))
	require.True(t, res.Accepted)

	apID := res.Appointment.ID
	require.NoError(t, f.store.AppendHistory(f.ctx, &models.LoyaltyHistory{
		ClientID:      f.client.ID,
		Action:        loyalty.ActionServiceCompleted,
		AppointmentID: &apID,
	}))

	ap, err := f.completer(&recordingPublisher{}).Execute(f.ctx, nil, apID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), ap.Status)

	_, err = f.store.GetProfileForUpdate(f.ctx, f.client.ID)
	assert.True(t, httperr.IsNotFound(err), "no counter was touched")
}

func TestCompleteAppointment_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.completer(&recordingPublisher{}).Execute(f.ctx, nil, 999)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeAppointmentNotFound))
}

// ======================================================
// STATUS
// ======================================================

func TestChangeStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	uc := NewChangeStatus(f.store, nil)

	res := f.reserve(t, 600, one(f.cut))
	require.True(t, res.Accepted)
	id := res.Appointment.ID

	ap, err := uc.Execute(f.ctx, nil, id, ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.NotNil(t, ap.ConfirmedAt)

	_, err = uc.Execute(f.ctx, nil, id, ActionConfirm)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidState))

	ap, err = uc.Execute(f.ctx, nil, id, ActionNoShow)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNoShow), ap.Status)

	_, err = uc.Execute(f.ctx, nil, id, ActionCancel)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidState))

	// falta continua ocupando o horário
	again := f.reserve(t, 600, one(f.cut))
	assert.False(t, again.Accepted)
}

// ======================================================
// AVAILABILITY / LISTING
// ======================================================

func TestGetAvailability_SkipsBookedRange(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.ReplaceWorkingHours(f.ctx, []models.WorkingHours{
		{Weekday: 1, Active: true, StartTime: "09:00", EndTime: "12:00"},
	}))

	res := f.reserve(t, 9*60, one(f.cut)) // 09:00-10:15
	require.True(t, res.Accepted)

	slots, err := NewGetAvailability(f.store, 15).Execute(f.ctx, AvailabilityInput{
		Date:     f.monday,
		Services: []ServiceSelection{one(f.cut)},
	})
	require.NoError(t, err)

	starts := make([]int, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.StartMinute)
	}
	assert.Equal(t, []int{615, 630, 645}, starts)
	assert.Equal(t, "10:15", slots[0].Start)
	assert.Equal(t, "11:30", slots[0].End)

	_, err = NewGetAvailability(f.store, 15).Execute(f.ctx, AvailabilityInput{Date: f.monday})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeEmptySelection))
}

func TestListAppointments_ByDateAndMonth(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.reserve(t, 600, one(f.cut)).Accepted)
	require.True(t, f.reserve(t, 14*60, one(f.colour)).Accepted)

	uc := NewListAppointments(f.store)

	day, err := uc.ByDate(f.ctx, f.monday)
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "10:00", day[0].StartTime)
	assert.Equal(t, "11:15", day[0].EndTime)
	assert.Equal(t, "Ana", day[0].ClientName)
	assert.Equal(t, []string{"Coupe"}, day[0].Services)

	month, err := uc.ByMonth(f.ctx, 2026, 3)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	empty, err := uc.ByMonth(f.ctx, 2026, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
