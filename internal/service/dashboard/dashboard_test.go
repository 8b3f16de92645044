package dashboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
	"github.com/nkiryanov/savingapp/internal/repository/postgres"
	"github.com/nkiryanov/savingapp/internal/service/ledger"
	"github.com/nkiryanov/savingapp/internal/testutil"
)

func TestDashboard(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type fixture struct {
		owner    models.User
		main     models.Account
		inactive models.Account
	}

	// Nasabah with two accounts: main has 500 deposited and 200 withdrawn, other one is inactive with 50
	inTx := func(t *testing.T, fn func(s *Service, storage repository.Storage, f fixture)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			poster := ledger.NewPoster(storage, nil)

			owner, err := storage.User().Create(t.Context(), models.User{
				CreatedAt:      time.Now().UTC(),
				FullName:       "Budi Santoso",
				Email:          uuid.NewString() + "@example.com",
				HashedPassword: "hash",
				Role:           models.RoleNasabah,
			})
			require.NoError(t, err)

			f := fixture{owner: owner}
			f.main, err = storage.Account().Create(t.Context(), owner.ID)
			require.NoError(t, err)
			f.inactive, err = storage.Account().Create(t.Context(), owner.ID)
			require.NoError(t, err)

			for _, p := range []ledger.PostParams{
				{AccountCode: f.main.Code, Type: models.TransactionTypeDeposit, Amount: 500},
				{AccountCode: f.main.Code, Type: models.TransactionTypeWithdraw, Amount: 200},
				{AccountCode: f.inactive.Code, Type: models.TransactionTypeDeposit, Amount: 50},
			} {
				_, err := poster.Post(t.Context(), p)
				require.NoError(t, err)
			}
			_, err = storage.Account().SetActive(t.Context(), f.inactive.Code, false)
			require.NoError(t, err)

			fn(NewService(storage), storage, f)
		})
	}

	t.Run("admin", func(t *testing.T) {
		inTx(t, func(s *Service, storage repository.Storage, _ fixture) {
			// Other tests may commit data in the same db, so compare with the repo figures
			nasabah, err := storage.User().CountByRole(t.Context(), models.RoleNasabah)
			require.NoError(t, err)
			summary, err := storage.Account().Summary(t.Context(), models.AccountFilter{})
			require.NoError(t, err)

			d, err := s.Admin(t.Context())

			require.NoError(t, err)
			assert.Equal(t, nasabah, d.Nasabah)
			assert.Equal(t, summary, d.AccountSummary)
			assert.GreaterOrEqual(t, d.InactiveAccounts, int64(1))
			assert.Equal(t, d.TotalDeposit-d.TotalWithdraw, d.TotalBalance)
		})
	})

	t.Run("nasabah all accounts", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, f fixture) {
			d, err := s.Nasabah(t.Context(), f.owner.ID, NasabahParams{})

			require.NoError(t, err)
			assert.Equal(t, int64(2), d.Accounts)
			assert.Equal(t, int64(1), d.ActiveAccounts)
			assert.Equal(t, int64(350), d.TotalBalance)
			assert.Equal(t, models.TransactionTotals{Deposit: 550, Withdraw: 200, Count: 3}, d.Period)
		})
	})

	t.Run("nasabah active only", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, f fixture) {
			active := true

			d, err := s.Nasabah(t.Context(), f.owner.ID, NasabahParams{Active: &active})

			require.NoError(t, err)
			assert.Equal(t, int64(1), d.Accounts)
			assert.Equal(t, int64(300), d.TotalBalance)
			assert.Equal(t, int64(500), d.Period.Deposit)
		})
	})

	t.Run("nasabah future window is empty", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, f fixture) {
			from := time.Now().Add(time.Hour)

			d, err := s.Nasabah(t.Context(), f.owner.ID, NasabahParams{AccountCode: f.main.Code, From: &from})

			require.NoError(t, err)
			assert.Equal(t, int64(1), d.Accounts)
			assert.Equal(t, models.TransactionTotals{}, d.Period)
		})
	})

	t.Run("nasabah without accounts", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, _ fixture) {
			_, err := s.Nasabah(t.Context(), uuid.New(), NasabahParams{})

			require.ErrorIs(t, err, apperrors.ErrAccountsNotFound)
		})
	})

	t.Run("nasabah other owner account", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, f fixture) {
			_, err := s.Nasabah(t.Context(), uuid.New(), NasabahParams{AccountCode: f.main.Code})

			require.ErrorIs(t, err, apperrors.ErrAccountsNotFound)
		})
	})

	t.Run("nasabah invalid range", func(t *testing.T) {
		inTx(t, func(s *Service, _ repository.Storage, f fixture) {
			from, to := time.Now(), time.Now().Add(-time.Hour)

			_, err := s.Nasabah(t.Context(), f.owner.ID, NasabahParams{From: &from, To: &to})

			require.ErrorIs(t, err, apperrors.ErrDateRangeInvalid)
		})
	})
}
