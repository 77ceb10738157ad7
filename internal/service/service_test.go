package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/provider"
	"github.com/GlebRadaev/creditsettle/internal/repo"
	"github.com/GlebRadaev/creditsettle/internal/repo/memory"
	"github.com/GlebRadaev/creditsettle/internal/service/checkoutservice"
	"github.com/GlebRadaev/creditsettle/internal/service/verifyservice"
	"github.com/GlebRadaev/creditsettle/pkg/clients"
)

type sessions map[string]*domain.PaymentSession

func (s sessions) LookupSession(_ context.Context, id string) (*domain.PaymentSession, error) {
	if session, ok := s[id]; ok {
		return session, nil
	}
	return nil, domain.ErrNotFound
}

// refundRejectingEntryRepo rejects refund entries so compensation cannot commit.
type refundRejectingEntryRepo struct {
	*memory.EntryRepo
}

func (r refundRejectingEntryRepo) Insert(ctx context.Context, entry *domain.LedgerEntry) error {
	if entry.Kind == domain.KindCreditRefund {
		return errors.New("ledger unavailable")
	}
	return r.EntryRepo.Insert(ctx, entry)
}

// checkoutCreator opens checkouts with a fixed provider id.
type checkoutCreator string

func (c checkoutCreator) CreateCheckout(_ context.Context, _ domain.CheckoutOrder) (*domain.CheckoutSession, error) {
	return &domain.CheckoutSession{ID: string(c), URL: "https://pay.test/" + string(c)}, nil
}

type fixture struct {
	services *Services
	repos    *repo.Repositories
}

func newFixture(t *testing.T, startingCredits int64, lookup sessions) *fixture {
	t.Helper()
	repos := repo.NewMemory(memory.New())
	return newFixtureWithRepos(repos, startingCredits, lookup)
}

func newFixtureWithRepos(repos *repo.Repositories, startingCredits int64, lookup sessions) *fixture {
	return newFixtureWithOptions(repos, Options{StartingCredits: startingCredits}, lookup)
}

func newFixtureWithOptions(repos *repo.Repositories, opts Options, lookup sessions) *fixture {
	opts.AuditTopic = "audit"
	if lookup != nil {
		opts.Lookups = map[domain.Provider]verifyservice.SessionLookup{
			domain.ProviderCardCheckout:        lookup,
			domain.ProviderAlternativeCheckout: lookup,
		}
	}
	return &fixture{services: New(repos, opts), repos: repos}
}

func (f *fixture) checkout(t *testing.T, p domain.Provider, userID string) *domain.CheckoutSession {
	t.Helper()
	session, err := f.services.PaymentService.CreateCheckout(context.Background(), domain.CheckoutRequest{
		Provider: p, UserID: userID, Type: domain.IntentCredits, PackageID: "popular",
	})
	require.NoError(t, err)
	return session
}

func entryFor(t *testing.T, entries []domain.LedgerEntry, externalEventID string) domain.LedgerEntry {
	t.Helper()
	for _, e := range entries {
		if e.ExternalEventID != nil && *e.ExternalEventID == externalEventID {
			return e
		}
	}
	require.Failf(t, "entry not found", "no entry for %s", externalEventID)
	return domain.LedgerEntry{}
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := f.services.CreditsService.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) entries(t *testing.T, userID string) []domain.LedgerEntry {
	t.Helper()
	entries, err := f.services.CreditsService.Entries(context.Background(), userID, 0)
	require.NoError(t, err)
	return entries
}

func (f *fixture) unlocked(t *testing.T, resourceID string) bool {
	t.Helper()
	e, err := f.repos.EntitlementRepo.Get(context.Background(), resourceID)
	require.NoError(t, err)
	return e != nil && e.Unlocked
}

func countEntries(entries []domain.LedgerEntry, kind domain.EntryKind, status domain.EntryStatus) int {
	n := 0
	for _, e := range entries {
		if e.Kind == kind && e.Status == status {
			n++
		}
	}
	return n
}

func creditsEvent(eventID, sessionID, userID string, amount int64) domain.ProviderEvent {
	return domain.ProviderEvent{
		Provider:  domain.ProviderCardCheckout,
		EventID:   eventID,
		EventType: "checkout.session.completed",
		Intent: &domain.PurchaseIntent{
			Type:            domain.IntentCredits,
			UserID:          userID,
			ExternalEventID: sessionID,
			Provider:        domain.ProviderCardCheckout,
			Amount:          amount,
		},
	}
}

func TestNew(t *testing.T) {
	services := New(repo.NewMemory(memory.New()), Options{})

	assert.NotNil(t, services.SettlementService)
	assert.NotNil(t, services.PaymentService)
	assert.NotNil(t, services.CreditsService)
	assert.NotNil(t, services.EntitlementService)
}

func TestScenarioA_DuplicateDepositAppliesOnce(t *testing.T) {
	f := newFixture(t, 3, nil)
	ctx := context.Background()
	ev := creditsEvent("evt-1", "evt-1", "user-1", 5)

	first, err := f.services.SettlementService.SettleEvent(ctx, ev)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.NewBalance)
	assert.Equal(t, int64(8), *first.NewBalance)

	second, err := f.services.SettlementService.SettleEvent(ctx, ev)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	assert.Equal(t, int64(8), f.balance(t, "user-1"))
	entries := f.entries(t, "user-1")
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, countEntries(entries, domain.KindCreditsTopup, domain.StatusCompleted))
}

func TestScenarioB_SpendWithoutCredits(t *testing.T) {
	f := newFixture(t, 0, nil)
	ctx := context.Background()
	_, err := f.services.EntitlementService.Register(ctx, "outfit-1", "user-1")
	require.NoError(t, err)

	_, err = f.services.CreditsService.SpendCreditForUnlock(ctx, "user-1", "outfit-1")

	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
	assert.False(t, f.unlocked(t, "outfit-1"))
	assert.Empty(t, f.entries(t, "user-1"))
}

func TestScenarioC_UnlockFailureIsCompensated(t *testing.T) {
	f := newFixture(t, 1, nil)

	_, err := f.services.CreditsService.SpendCreditForUnlock(context.Background(), "user-1", "outfit-404")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(1), f.balance(t, "user-1"))
	assert.False(t, f.unlocked(t, "outfit-404"))

	entries := f.entries(t, "user-1")
	assert.Equal(t, 1, countEntries(entries, domain.KindLinksUnlock, domain.StatusFailed))
	assert.Equal(t, 1, countEntries(entries, domain.KindCreditRefund, domain.StatusCompleted))
	var net int64
	for _, e := range entries {
		net += e.Amount
	}
	assert.Zero(t, net)
}

func TestIdempotence_Sequential(t *testing.T) {
	f := newFixture(t, 3, sessions{
		"cs_1": {ID: "cs_1", Paid: true, Status: "paid", Intent: creditsEvent("", "cs_1", "user-1", 15).Intent},
	})
	ctx := context.Background()
	req := domain.VerifyRequest{SessionOrToken: "cs_1", UserID: "user-1"}

	for i := 0; i < 3; i++ {
		result, err := f.services.PaymentService.VerifyAndSettle(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, i > 0, result.Duplicate)
	}

	assert.Equal(t, int64(18), f.balance(t, "user-1"))
	assert.Equal(t, 1, countEntries(f.entries(t, "user-1"), domain.KindCreditsTopup, domain.StatusCompleted))
}

func TestIdempotence_Concurrent(t *testing.T) {
	const callers = 16
	f := newFixture(t, 3, sessions{
		"cs_1": {ID: "cs_1", Paid: true, Status: "paid", Intent: creditsEvent("", "cs_1", "user-1", 15).Intent},
	})
	ctx := context.Background()

	var applied, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				result domain.SettlementResult
				err    error
			)
			if i%2 == 0 {
				result, err = f.services.PaymentService.VerifyAndSettle(ctx, domain.VerifyRequest{SessionOrToken: "cs_1", UserID: "user-1"})
			} else {
				result, err = f.services.SettlementService.SettleEvent(ctx, creditsEvent(fmt.Sprintf("evt_%d", i), "cs_1", "user-1", 15))
			}
			if !assert.NoError(t, err) {
				return
			}
			if result.Duplicate {
				duplicates.Add(1)
			} else {
				applied.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, int32(callers-1), duplicates.Load())
	assert.Equal(t, int64(18), f.balance(t, "user-1"))
	assert.Equal(t, 1, countEntries(f.entries(t, "user-1"), domain.KindCreditsTopup, domain.StatusCompleted))
}

func TestNoNegativeBalance(t *testing.T) {
	const (
		starting = 5
		spenders = 20
	)
	f := newFixture(t, starting, nil)
	ctx := context.Background()
	for i := 0; i < spenders; i++ {
		_, err := f.services.EntitlementService.Register(ctx, fmt.Sprintf("outfit-%d", i), "user-1")
		require.NoError(t, err)
	}

	var succeeded, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < spenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.services.CreditsService.SpendCreditForUnlock(ctx, "user-1", fmt.Sprintf("outfit-%d", i))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(starting), succeeded.Load())
	assert.Equal(t, int32(spenders-starting), rejected.Load())
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture(t, 3, nil)
	ctx := context.Background()
	_, err := f.services.EntitlementService.Register(ctx, "outfit-1", "owner")
	require.NoError(t, err)

	_, err = f.services.CreditsService.SpendCreditForUnlock(ctx, "intruder", "outfit-1")
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)
	assert.Equal(t, int64(3), f.balance(t, "intruder"))

	_, err = f.services.SettlementService.SettleEvent(ctx, domain.ProviderEvent{
		Provider: domain.ProviderCardCheckout, EventID: "evt_links", EventType: "checkout.session.completed",
		Intent: &domain.PurchaseIntent{
			Type: domain.IntentLinksUnlock, UserID: "intruder", ExternalEventID: "cs_links",
			Provider: domain.ProviderCardCheckout, ResourceID: "outfit-1",
		},
	})
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)

	_, err = f.services.EntitlementService.Register(ctx, "outfit-1", "intruder")
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)

	assert.False(t, f.unlocked(t, "outfit-1"))
}

func TestCompensation_RestoresBalance(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()
	_, err := f.services.EntitlementService.Register(ctx, "outfit-1", "user-1")
	require.NoError(t, err)

	result, err := f.services.CreditsService.SpendCreditForUnlock(ctx, "user-1", "outfit-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.NewBalance)

	_, err = f.services.CreditsService.SpendCreditForUnlock(ctx, "user-1", "outfit-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyUnlocked)
	assert.Equal(t, int64(1), f.balance(t, "user-1"))
	assert.True(t, f.unlocked(t, "outfit-1"))
}

func TestCompensation_RefundFailureIsSurfaced(t *testing.T) {
	store := memory.New()
	repos := repo.NewMemory(store)
	repos.EntryRepo = refundRejectingEntryRepo{EntryRepo: store.Entries()}
	f := newFixtureWithRepos(repos, 1, nil)

	_, err := f.services.CreditsService.SpendCreditForUnlock(context.Background(), "user-1", "outfit-404")

	var compErr *domain.CompensationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "user-1", compErr.UserID)
	assert.NotEmpty(t, compErr.EntryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The withdrawal stays pending for manual repair.
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
	assert.Equal(t, 1, countEntries(f.entries(t, "user-1"), domain.KindLinksUnlock, domain.StatusPending))
}

func TestConvergence(t *testing.T) {
	polarIntent := &domain.PurchaseIntent{
		Type: domain.IntentCredits, UserID: "user-1", ExternalEventID: "ord_1",
		Provider: domain.ProviderAlternativeCheckout, Amount: 15, PackageID: "popular", ProviderRef: "chk_1",
	}
	lookup := sessions{
		"cs_1":  {ID: "cs_1", Paid: true, Status: "paid", Intent: creditsEvent("", "cs_1", "user-1", 15).Intent},
		"chk_1": {ID: "ord_1", Paid: true, Status: "paid", Intent: polarIntent},
	}
	verify := func(p domain.Provider, id string) func(f *fixture) (domain.SettlementResult, error) {
		return func(f *fixture) (domain.SettlementResult, error) {
			return f.services.PaymentService.VerifyAndSettle(context.Background(), domain.VerifyRequest{
				Provider: p, SessionOrToken: id, UserID: "user-1",
			})
		}
	}
	deliver := func(ev domain.ProviderEvent) func(f *fixture) (domain.SettlementResult, error) {
		return func(f *fixture) (domain.SettlementResult, error) {
			return f.services.SettlementService.SettleEvent(context.Background(), ev)
		}
	}
	cardEvent := creditsEvent("evt_1", "cs_1", "user-1", 15)
	polarEvent := domain.ProviderEvent{
		Provider: domain.ProviderAlternativeCheckout, EventID: "evt_p1", EventType: "order.paid", Intent: polarIntent,
	}

	tests := []struct {
		name          string
		provider      domain.Provider
		checkoutID    string
		settledUnder  string
		first, second func(f *fixture) (domain.SettlementResult, error)
	}{
		{name: "Card webhook first", provider: domain.ProviderCardCheckout, checkoutID: "cs_1", settledUnder: "cs_1",
			first: deliver(cardEvent), second: verify(domain.ProviderCardCheckout, "cs_1")},
		{name: "Card verifier first", provider: domain.ProviderCardCheckout, checkoutID: "cs_1", settledUnder: "cs_1",
			first: verify(domain.ProviderCardCheckout, "cs_1"), second: deliver(cardEvent)},
		{name: "Polar webhook first", provider: domain.ProviderAlternativeCheckout, checkoutID: "chk_1", settledUnder: "ord_1",
			first: deliver(polarEvent), second: verify(domain.ProviderAlternativeCheckout, "chk_1")},
		{name: "Polar verifier first", provider: domain.ProviderAlternativeCheckout, checkoutID: "chk_1", settledUnder: "ord_1",
			first: verify(domain.ProviderAlternativeCheckout, "chk_1"), second: deliver(polarEvent)},
	}

	var balances []int64
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureWithOptions(repo.NewMemory(memory.New()), Options{
				StartingCredits: 3,
				Creators:        map[domain.Provider]checkoutservice.Creator{tt.provider: checkoutCreator(tt.checkoutID)},
			}, lookup)
			f.checkout(t, tt.provider, "user-1")

			first, err := tt.first(f)
			require.NoError(t, err)
			assert.False(t, first.Duplicate)

			second, err := tt.second(f)
			require.NoError(t, err)
			assert.True(t, second.Duplicate)

			balances = append(balances, f.balance(t, "user-1"))
			entries := f.entries(t, "user-1")
			require.Len(t, entries, 1)
			assert.Equal(t, 1, countEntries(entries, domain.KindCreditsTopup, domain.StatusCompleted))
			assert.Equal(t, domain.StatusCompleted, entryFor(t, entries, tt.settledUnder).Status)
		})
	}
	require.Len(t, balances, 4)
	for _, b := range balances {
		assert.Equal(t, int64(18), b)
	}
}

func TestCheckoutPaymentFailure_FailsPendingEntry(t *testing.T) {
	t.Run("Card payment failure resolved to its session", func(t *testing.T) {
		f := newFixtureWithOptions(repo.NewMemory(memory.New()), Options{
			StartingCredits: 3,
			Creators:        map[domain.Provider]checkoutservice.Creator{domain.ProviderCardCheckout: checkoutCreator("cs_1")},
		}, nil)
		session := f.checkout(t, domain.ProviderCardCheckout, "user-1")

		_, err := f.services.SettlementService.SettleEvent(context.Background(), domain.ProviderEvent{
			Provider: domain.ProviderCardCheckout, EventID: "evt_f1", EventType: "payment_intent.payment_failed", FailedRef: session.ID,
		})
		require.NoError(t, err)

		entry := entryFor(t, f.entries(t, "user-1"), "cs_1")
		assert.Equal(t, domain.StatusFailed, entry.Status)
		assert.Equal(t, "payment_intent.payment_failed", entry.Metadata.Reason)
		assert.Equal(t, int64(3), f.balance(t, "user-1"))
	})

	t.Run("Polar order failure through the webhook adapter", func(t *testing.T) {
		const secret = "polar_secret"
		client := clients.NewMockHTTPClientI(gomock.NewController(t))
		client.EXPECT().Post("https://api.polar.test/v1/checkouts/", gomock.Any(), gomock.Any()).
			Return(http.StatusCreated, []byte(`{"id":"chk_1","url":"https://polar.test/chk_1"}`), nil, nil)
		polar := provider.NewPolar(provider.PolarConfig{
			WebhookSecret: secret,
			APIURL:        "https://api.polar.test",
			Products:      provider.PolarProducts{Popular: "prod_p"},
		}, client)

		f := newFixtureWithOptions(repo.NewMemory(memory.New()), Options{
			StartingCredits: 3,
			Creators:        map[domain.Provider]checkoutservice.Creator{domain.ProviderAlternativeCheckout: polar},
		}, nil)
		session := f.checkout(t, domain.ProviderAlternativeCheckout, "user-1")
		require.Equal(t, "chk_1", session.ID)

		body := []byte(`{"id":"evt_f2","type":"order.payment_failed","data":{"id":"ord_1","checkout_id":"chk_1"}}`)
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		ev, err := polar.Normalize(body, hex.EncodeToString(mac.Sum(nil)))
		require.NoError(t, err)

		_, err = f.services.SettlementService.SettleEvent(context.Background(), *ev)
		require.NoError(t, err)

		entry := entryFor(t, f.entries(t, "user-1"), "chk_1")
		assert.Equal(t, domain.StatusFailed, entry.Status)
		assert.Equal(t, int64(3), f.balance(t, "user-1"))
	})
}
