package loyalty

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

func birthday(month time.Month, d int) *time.Time {
	b := time.Date(1990, month, d, 0, 0, 0, 0, time.UTC)
	return &b
}

type recordingPublisher struct {
	got []models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, ns []models.Notification) error {
	p.got = append(p.got, ns...)
	return nil
}

// ======================================================
// REGISTER
// ======================================================

func TestRegisterClient_WithReferralCode(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	uc := NewRegisterClient(store, nil, nil)

	sponsor, err := uc.Execute(ctx, RegisterClientInput{Name: "Ana", Phone: "1"})
	require.NoError(t, err)
	require.Len(t, sponsor.ReferralCode, 8)

	referred, err := uc.Execute(ctx, RegisterClientInput{
		Name:         "Bea",
		Phone:        "2",
		ReferralCode: "  " + sponsor.ReferralCode + " ",
	})
	require.NoError(t, err)
	assert.NotEqual(t, sponsor.ReferralCode, referred.ReferralCode)

	p, err := store.GetProfileForUpdate(ctx, referred.ID)
	require.NoError(t, err)
	assert.Equal(t, sponsor.ReferralCode, p.ReferredBy)

	discounts, err := store.ListDiscounts(ctx, sponsor.ID)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, loyalty.TypeReferralSponsor, discounts[0].Type)
	assert.Equal(t, loyalty.StatusPending, discounts[0].Status)
	require.NotNil(t, discounts[0].ReferredClientID)
	assert.Equal(t, referred.ID, *discounts[0].ReferredClientID)
}

func TestRegisterClient_Errors(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	uc := NewRegisterClient(store, nil, nil)

	_, err := uc.Execute(ctx, RegisterClientInput{Name: "Ana", Phone: "1", ReferralCode: "NOPE1234"})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidReferralCode))

	clients, err := store.ListClients(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, clients)

	_, err = uc.Execute(ctx, RegisterClientInput{Name: "Ana", Phone: "1"})
	require.NoError(t, err)
	_, err = uc.Execute(ctx, RegisterClientInput{Name: "Ana bis", Phone: "1"})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeClientAlreadyExists))
}

// ======================================================
// BIRTHDAYS
// ======================================================

func TestGrantBirthdayDiscounts_OncePerYear(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	ana := &models.Client{Name: "Ana", Phone: "1", Birthday: birthday(time.March, 10)}
	bea := &models.Client{Name: "Bea", Phone: "2", Birthday: birthday(time.April, 1)}
	require.NoError(t, store.CreateClient(ctx, ana))
	require.NoError(t, store.CreateClient(ctx, bea))

	pub := &recordingPublisher{}
	uc := NewGrantBirthdayDiscounts(store, nil, nil, pub)
	uc.now = func() time.Time { return day(2026, time.March, 10) }

	granted, err := uc.Execute(ctx, nil)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, ana.ID, granted[0].ClientID)
	assert.Equal(t, loyalty.StatusAvailable, granted[0].Status)
	assert.True(t, granted[0].Amount.Equal(loyalty.BirthdayAmount))

	require.Len(t, pub.got, 1)
	assert.Equal(t, loyalty.NotifyBirthdayDiscountGranted, pub.got[0].Kind)

	again, err := uc.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, again)

	uc.now = func() time.Time { return day(2027, time.March, 10) }
	next, err := uc.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, next, 1)
}

func TestGrantBirthdayDiscounts_LeapDayBirthday(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	leap := &models.Client{Name: "Léa", Phone: "1", Birthday: birthday(time.February, 29)}
	require.NoError(t, store.CreateClient(ctx, leap))

	uc := NewGrantBirthdayDiscounts(store, nil, nil, &recordingPublisher{})

	uc.now = func() time.Time { return day(2027, time.February, 28) }
	granted, err := uc.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, granted, 1, "non-leap year: honoured on 28 February")

	uc.now = func() time.Time { return day(2028, time.February, 28) }
	granted, err = uc.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, granted, "leap year: waits for the 29th")

	uc.now = func() time.Time { return day(2028, time.February, 29) }
	granted, err = uc.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, granted, 1)
}

// lockOrderStore records the order of the birthday lock and the client scan
// inside a transaction.
type lockOrderStore struct {
	domain.Repository
	calls *[]string
}

func (s *lockOrderStore) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	return s.Repository.Transaction(ctx, func(tx domain.Repository) error {
		return fn(&lockOrderStore{Repository: tx, calls: s.calls})
	})
}

func (s *lockOrderStore) LockBirthdayYear(ctx context.Context, year int) error {
	*s.calls = append(*s.calls, fmt.Sprintf("lock %d", year))
	return s.Repository.LockBirthdayYear(ctx, year)
}

func (s *lockOrderStore) ListClientsWithBirthday(ctx context.Context, month time.Month, d int) ([]models.Client, error) {
	*s.calls = append(*s.calls, "scan")
	return s.Repository.ListClientsWithBirthday(ctx, month, d)
}

func TestGrantBirthdayDiscounts_LocksYearBeforeScan(t *testing.T) {
	ctx := context.Background()
	var calls []string
	store := &lockOrderStore{Repository: repository.NewMemoryStore(), calls: &calls}

	uc := NewGrantBirthdayDiscounts(store, nil, nil, &recordingPublisher{})
	uc.now = func() time.Time { return day(2026, time.March, 10) }

	_, err := uc.Execute(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, "lock 2026", calls[0])
	assert.Contains(t, calls, "scan")
}

func TestGrantBirthdayDiscounts_ConcurrentRuns(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	ana := &models.Client{Name: "Ana", Phone: "1", Birthday: birthday(time.March, 10)}
	require.NoError(t, store.CreateClient(ctx, ana))

	uc := NewGrantBirthdayDiscounts(store, nil, nil, notify.LogPublisher{})
	uc.now = func() time.Time { return day(2026, time.March, 10) }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(ctx, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	discounts, err := store.ListDiscounts(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, discounts, 1)
}

// ======================================================
// EXPIRE / OVERVIEW
// ======================================================

func TestExpireDiscount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	available := &models.Discount{ClientID: 1, Type: loyalty.TypeBirthday, Amount: loyalty.BirthdayAmount, Status: loyalty.StatusAvailable}
	pending := &models.Discount{ClientID: 1, Type: loyalty.TypeReferralSponsor, Amount: loyalty.ReferralAmount, Status: loyalty.StatusPending}
	require.NoError(t, store.CreateDiscount(ctx, available))
	require.NoError(t, store.CreateDiscount(ctx, pending))

	uc := NewExpireDiscount(store, nil, nil)

	d, err := uc.Execute(ctx, nil, available.ID)
	require.NoError(t, err)
	assert.Equal(t, loyalty.StatusExpired, d.Status)
	assert.NotNil(t, d.ExpiredAt)

	_, err = uc.Execute(ctx, nil, available.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidDiscountTransition))

	_, err = uc.Execute(ctx, nil, pending.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidDiscountTransition))

	_, err = uc.Execute(ctx, nil, 999)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeDiscountNotFound))
}

func TestGetClientLoyalty(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	c := &models.Client{Name: "Ana", Phone: "1"}
	require.NoError(t, store.CreateClient(ctx, c))

	overview, err := NewGetClientLoyalty(store).Execute(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, overview.Profile.ClientID)
	assert.Zero(t, overview.Profile.LoyaltyPoints)
	assert.Empty(t, overview.Discounts)
	assert.Empty(t, overview.History)

	_, err = NewGetClientLoyalty(store).Execute(ctx, 999)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeClientNotFound))
}

func TestListHistory_ClampsPage(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendHistory(ctx, &models.LoyaltyHistory{
			ClientID: 1,
			Action:   loyalty.ActionPaymentRecorded,
		}))
	}

	rows, total, err := NewListHistory(store).Execute(ctx, loyalty.HistoryFilter{ClientID: 1, Limit: 10_000})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)
}
