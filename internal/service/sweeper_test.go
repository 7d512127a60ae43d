package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

func newSweeperFixture(t *testing.T) (*memTicketStore, *fakeGateway, *ExpirySweeper) {
	t.Helper()

	clock := fixedNow
	store := newMemTicketStore()
	store.put(runningTicket("t1", 4, 10))
	gateway := newFakeGateway()

	reserve := func(number, payment string, at time.Time) {
		store.now = func() time.Time { return at }
		_, err := store.ReserveQuota(context.Background(), "t1", number, []domain.QuotaStatus{domain.QuotaAvailable}, domain.QuotaPending, "user-1", payment)
		require.NoError(t, err)
	}
	reserve("1", "expired-pending", clock.Add(-time.Hour))
	reserve("2", "expired-approved", clock.Add(-time.Hour))
	reserve("3", "fresh", clock.Add(-time.Minute))
	reserve("4", "expired-rejected", clock.Add(-time.Hour))

	gateway.setStatus("expired-pending", domain.PaymentPending, "t1")
	gateway.setStatus("expired-approved", domain.PaymentApproved, "t1")
	gateway.setStatus("fresh", domain.PaymentPending, "t1")
	gateway.setStatus("expired-rejected", domain.PaymentRejected, "t1")

	sweeper := NewExpirySweeper(store, gateway,
		WithGracePeriod(15*time.Minute),
		WithSweeperClock(func() time.Time { return clock }),
	)

	return store, gateway, sweeper
}

func TestExpirySweeper_Sweep(t *testing.T) {
	store, gateway, sweeper := newSweeperFixture(t)

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Confirmed: 1, Released: 2}, result)
	assert.Equal(t, domain.QuotaAvailable, store.quota("t1", "1").Status)
	assert.Equal(t, domain.QuotaSold, store.quota("t1", "2").Status)
	assert.Equal(t, domain.QuotaPending, store.quota("t1", "3").Status)
	assert.Equal(t, domain.QuotaAvailable, store.quota("t1", "4").Status)

	// rejected payments are already dead and need no cancel
	assert.Equal(t, []string{"expired-pending"}, gateway.cancelled)

	result, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, result)
}

func TestExpirySweeper_SkipsWhenCancelFails(t *testing.T) {
	store, gateway, sweeper := newSweeperFixture(t)
	gateway.cancelErr = errors.New("cancel refused")

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, domain.QuotaPending, store.quota("t1", "1").Status)
}

func TestExpirySweeper_SkipsWhenStatusUnavailable(t *testing.T) {
	store, gateway, sweeper := newSweeperFixture(t)
	gateway.statusErr = errors.New("timeout")

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, domain.QuotaPending, store.quota("t1", "1").Status)
	assert.Equal(t, domain.QuotaPending, store.quota("t1", "2").Status)
}

func TestExpirySweeper_RunStopsWithContext(t *testing.T) {
	_, _, sweeper := newSweeperFixture(t)
	sweeper.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
