package handlers

import (
	"net/http"

	"github.com/nkiryanov/savingapp/internal/handlers/render"
	"github.com/nkiryanov/savingapp/internal/logger"
	"github.com/nkiryanov/savingapp/internal/models"
)

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *userResponse `json:"user,omitempty"`
}

func newTokenResponse(pair models.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    "Bearer",
		ExpiresIn:    secondsUntil(pair.Access.ExpiresAt),
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, user, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			renderError(w, l, err)
			return
		}

		resp := newTokenResponse(pair)
		u := newUserResponse(user)
		resp.User = &u
		render.JSON(w, "Login successful", resp)
	})
}

func handleRefresh(authService authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		pair, err := authService.RefreshPair(r.Context(), data.RefreshToken)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Token refreshed successfully", newTokenResponse(pair))
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[refreshRequest](w, r)
		if err != nil {
			return
		}

		if err := authService.Logout(r.Context(), data.RefreshToken); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, "Logout successful", nil)
	})
}
