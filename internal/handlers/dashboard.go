package handlers

import (
	"net/http"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/service/dashboard"
)

func handleAdminDashboard(dashboards dashboardService, l logger.Logger) http.Handler {
	type response struct {
		TotalNasabah         int64 `json:"total_nasabah"`
		TotalAccountActive   int64 `json:"total_account_active"`
		TotalAccountInactive int64 `json:"total_account_inactive"`
		TotalDeposit         int64 `json:"total_deposit"`
		TotalWithdraw        int64 `json:"total_withdraw"`
		TotalBalance         int64 `json:"total_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := dashboards.Admin(r.Context())
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Admin dashboard data retrieved successfully", response{
			TotalNasabah:         d.Nasabah,
			TotalAccountActive:   d.ActiveAccounts,
			TotalAccountInactive: d.InactiveAccounts,
			TotalDeposit:         d.TotalDeposit,
			TotalWithdraw:        d.TotalWithdraw,
			TotalBalance:         d.TotalBalance,
		})
	})
}

func handleNasabahDashboard(dashboards dashboardService, l logger.Logger) http.Handler {
	type response struct {
		TotalDeposit          int64 `json:"total_deposit"`
		TotalWithdraw         int64 `json:"total_withdraw"`
		TotalBalance          int64 `json:"total_balance"`
		TotalAccounts         int64 `json:"total_accounts"`
		TotalAccountsActive   int64 `json:"total_accounts_active"`
		TotalAccountsInactive int64 `json:"total_accounts_inactive"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}

		var (
			q   = r.URL.Query()
			p   = dashboard.NasabahParams{AccountCode: q.Get("accountCode")}
			err error
		)
		if p.From, err = dateParam(q, "from", false); err != nil {
			renderError(w, l, err)
			return
		}
		if p.To, err = dateParam(q, "to", true); err != nil {
			renderError(w, l, err)
			return
		}
		if p.Active, err = boolParam(q, "status"); err != nil {
			renderError(w, l, err)
			return
		}

		d, err := dashboards.Nasabah(r.Context(), u.ID, p)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Nasabah dashboard data retrieved successfully", response{
			TotalDeposit:          d.Period.Deposit,
			TotalWithdraw:         d.Period.Withdraw,
			TotalBalance:          d.TotalBalance,
			TotalAccounts:         d.Accounts,
			TotalAccountsActive:   d.ActiveAccounts,
			TotalAccountsInactive: d.InactiveAccounts,
		})
	})
}
