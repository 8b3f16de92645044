package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/service/user"
)

func userIDPath(r *http.Request) (uuid.UUID, error) {
	v := r.PathValue("userId")
	id, err := uuid.Parse(v)
	if err != nil {
		return id, &paramError{Name: "userId", Value: v}
	}
	return id, nil
}

func handleCreateNasabah(users userService, l logger.Logger) http.Handler {
	type request struct {
		FullName string `json:"full_name" validate:"required,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Address  string `json:"address" validate:"max=300"`
		Phone    string `json:"phone" validate:"omitempty,numeric,max=15"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := users.CreateNasabah(r.Context(), user.CreateParams{
			FullName: data.FullName,
			Email:    data.Email,
			Password: data.Password,
			Address:  data.Address,
			Phone:    data.Phone,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.Created(w, "Nasabah added successfully", newUserResponse(created))
	})
}

func handleListNasabah(users userService, l logger.Logger) http.Handler {
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

		found, err := users.ListNasabah(r.Context(), user.ListParams{
			Keyword: q.Get("keyword"),
			SortBy:  q.Get("sortBy"),
			Desc:    desc,
			Page:    page,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		items, meta := mapPage(found, newUserResponse)
		render.Page(w, "Nasabah list retrieved successfully", items, meta)
	})
}

func handleGetNasabah(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDPath(r)
		if err != nil {
			renderError(w, l, err)
			return
		}

		found, err := users.GetNasabah(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Nasabah retrieved successfully", newUserResponse(found))
	})
}

func handleUpdateNasabah(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDPath(r)
		if err != nil {
			renderError(w, l, err)
			return
		}

		data, err := render.BindAndValidate[profileRequest](w, r)
		if err != nil {
			return
		}

		updated, err := users.UpdateNasabah(r.Context(), id, data.params())
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Nasabah updated successfully", newUserResponse(updated))
	})
}

func handleDeleteNasabah(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDPath(r)
		if err != nil {
			renderError(w, l, err)
			return
		}

		if err := users.DeleteNasabah(r.Context(), id); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Nasabah deleted successfully", nil)
	})
}
