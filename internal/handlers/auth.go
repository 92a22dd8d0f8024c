package handlers

import (
	"errors"
	"net/http"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/handlers/render"
	"github.com/icyeza/bkvc/internal/logger"
	"github.com/icyeza/bkvc/internal/service/auth"
)

func handleSignup(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Phone    string `json:"phonenumber" validate:"required,e164"`
		NID      string `json:"nid" validate:"required,len=16"`
		Gender   string `json:"gender" validate:"required"`
	}
	type response struct {
		Message      string `json:"message"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		_, pair, err := as.Register(r.Context(), auth.RegisterParams{
			Username:   data.Username,
			Password:   data.Password,
			Name:       data.Name,
			Email:      data.Email,
			Phone:      data.Phone,
			NationalID: data.NID,
			Gender:     data.Gender,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{
				Message:      "User created successfully.",
				AccessToken:  pair.Access.Value,
				RefreshToken: pair.Refresh.Value,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message      string `json:"message"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		_, pair, err := as.Login(r.Context(), data.Username, data.Password)

		switch {
		case err == nil:
			render.JSON(w, response{
				Message:      "User logged in successfully.",
				AccessToken:  pair.Access.Value,
				RefreshToken: pair.Refresh.Value,
			})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid username or password", http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Refresh(r.Context(), data.RefreshToken)

		switch {
		case err == nil:
			render.JSON(w, response{
				AccessToken:  pair.Access.Value,
				RefreshToken: pair.Refresh.Value,
			})
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound), errors.Is(err, apperrors.ErrRefreshTokenIsUsed):
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
