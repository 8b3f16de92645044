package handlers

import (
	"net/http"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/handlers/userctx"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/service/user"
)

// Authenticated user of the request. Renders 500 if auth middleware was skipped
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	u, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
	return u, ok
}

func handleProfileMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}
		render.JSON(w, "User profile retrieved successfully", newUserResponse(u))
	})
}

type profileRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"max=300"`
	Phone    string `json:"phone" validate:"omitempty,numeric,max=15"`
}

func (p profileRequest) params() user.ProfileParams {
	return user.ProfileParams{
		FullName: p.FullName,
		Email:    p.Email,
		Address:  p.Address,
		Phone:    p.Phone,
	}
}

func handleProfileUpdate(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[profileRequest](w, r)
		if err != nil {
			return
		}

		updated, err := users.UpdateProfile(r.Context(), u.ID, data.params())
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "User updated successfully", newUserResponse(updated))
	})
}

func handleChangePassword(users userService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
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

		if err := users.ChangePassword(r.Context(), u.ID, data.OldPassword, data.NewPassword); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Password changed successfully", nil)
	})
}
