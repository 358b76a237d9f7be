package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/store/memory"
)

func TestExecTxRollsBackOnError(t *testing.T) {
	st := memory.NewStore()
	st.SeedAccount(&model.Account{CustomerID: 1, BalanceCents: 500})

	boom := errors.New("boom")
	err := st.ExecTx(context.Background(), func(r ledger.Repos) error {
		a, err := r.Accounts.Get(context.Background(), 1)
		require.NoError(t, err)
		a.BalanceCents = 0
		require.NoError(t, r.Accounts.Update(context.Background(), a))
		if err := r.Bookings.Create(context.Background(), &model.Booking{CustomerID: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, err := st.Repos().Accounts.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), a.BalanceCents)
	_, err = st.Repos().Bookings.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestExecTxCommitsOnSuccess(t *testing.T) {
	st := memory.NewStore()
	err := st.ExecTx(context.Background(), func(r ledger.Repos) error {
		return r.Bookings.Create(context.Background(), &model.Booking{CustomerID: 1, Status: model.StatusConfirmed})
	})
	require.NoError(t, err)

	b, err := st.Repos().Bookings.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
}

func TestReadsReturnClones(t *testing.T) {
	st := memory.NewStore()
	st.SeedAccount(&model.Account{CustomerID: 1, BalanceCents: 500})

	a, err := st.Repos().Accounts.Get(context.Background(), 1)
	require.NoError(t, err)
	a.BalanceCents = 0 // must not leak into the store

	again, err := st.Repos().Accounts.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), again.BalanceCents)
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	st := memory.NewStore()
	err := st.ExecTx(context.Background(), func(r ledger.Repos) error {
		for i := 0; i < 3; i++ {
			if err := r.Bookings.Create(context.Background(), &model.Booking{CustomerID: 1}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	for id := uint64(1); id <= 3; id++ {
		_, err := st.Repos().Bookings.GetByID(context.Background(), id)
		assert.NoError(t, err)
	}
}
