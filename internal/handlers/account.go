package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/service/account"
)

func handleCreateAccount(accounts accountService, l logger.Logger) http.Handler {
	type request struct {
		UserID string `json:"user_id" validate:"required,uuid"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := accounts.Create(r.Context(), uuid.MustParse(data.UserID))
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.Created(w, "Account created successfully", newAccountResponse(created))
	})
}

func handleListAccounts(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := pageParam(q)
		if err != nil {
			renderError(w, l, err)
			return
		}
		desc, err := descParam(q)
		if err != nil {
			renderError(w, l, err)
			return
		}

		owner, err := uuidParam(q, "userId")
		if err != nil {
			renderError(w, l, err)
			return
		}

		found, err := accounts.List(r.Context(), account.ListParams{
			UserID:  owner,
			Keyword: q.Get("keyword"),
			Desc:    desc,
			Page:    page,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		items, meta := mapPage(found, newAccountResponse)
		render.Page(w, "Account retrieved successfully", items, meta)
	})
}

func handleAccountStatus(accounts accountService, l logger.Logger) http.Handler {
	type request struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := accounts.SetStatus(r.Context(), r.PathValue("accountCode"), *data.IsActive)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Account status updated successfully", newAccountResponse(updated))
	})
}

func handleDeleteAccount(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := accounts.Delete(r.Context(), r.PathValue("accountCode")); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Account deleted successfully", nil)
	})
}

func handleOwnAccounts(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}
		page, err := pageParam(r.URL.Query())
		if err != nil {
			renderError(w, l, err)
			return
		}

		found, err := accounts.ListOwn(r.Context(), u.ID, page)
		if err != nil {
			renderError(w, l, err)
			return
		}

		items, meta := mapPage(found, newAccountResponse)
		render.Page(w, "Accounts retrieved successfully", items, meta)
	})
}
