package handlers

import (
	"net/http"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/service/ledger"
)

func handleCreateTransaction(access accessChecker, poster transactionPoster, l logger.Logger) http.Handler {
	type request struct {
		AccountCode string `json:"accountCode" validate:"required,accountcode"`
		Type        string `json:"type" validate:"required,txtype"`
		Amount      int64  `json:"amount" validate:"gte=1"`
		Note        string `json:"note" validate:"max=200"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if _, err := access.CheckAccount(r.Context(), u, data.AccountCode); err != nil {
			renderError(w, l, err)
			return
		}

		posted, err := poster.Post(r.Context(), ledger.PostParams{
			AccountCode: data.AccountCode,
			Type:        models.TransactionType(data.Type),
			Amount:      data.Amount,
			Note:        data.Note,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.Created(w, "Transaction created successfully", newTransactionResponse(posted))
	})
}

func handleListTransactions(access accessChecker, query transactionQuery, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}

		f, err := transactionFilter(r)
		if err != nil {
			renderError(w, l, err)
			return
		}

		if _, err := access.CheckAccount(r.Context(), u, f.AccountCode); err != nil {
			renderError(w, l, err)
			return
		}

		found, err := query.List(r.Context(), f)
		if err != nil {
			renderError(w, l, err)
			return
		}

		items, meta := mapPage(found, newTransactionResponse)
		render.Page(w, "Transactions retrieved successfully", items, meta)
	})
}

func transactionFilter(r *http.Request) (models.TransactionFilter, error) {
	var (
		f   models.TransactionFilter
		err error
	)
	q := r.URL.Query()

	f.AccountCode = q.Get("accountCode")
	if f.AccountCode == "" {
		return f, &paramError{Name: "accountCode"}
	}
	if f.Page, err = pageParam(q); err != nil {
		return f, err
	}
	if f.Desc, err = descParam(q); err != nil {
		return f, err
	}
	if f.From, err = dateParam(q, "from", false); err != nil {
		return f, err
	}
	if f.To, err = dateParam(q, "to", true); err != nil {
		return f, err
	}
	f.SortBy = q.Get("sortBy")
	f.Keyword = q.Get("keyword")

	return f, nil
}
