package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/respond"
	"masterboxer.com/project-instaclone/services"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// CookieOptions controls the session cookie
type CookieOptions struct {
	Secure bool
}

func Register(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := users.Register(r.Context(), services.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		}); err != nil {
			writeError(w, r, err)
			return
		}

		respond.Success(w, http.StatusCreated, "Account created successfully.", nil)
	}
}

func Login(users *services.UserService, opts CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		result, err := users.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.TokenCookie,
			Value:    result.Token,
			Path:     "/",
			Expires:  result.ExpiresAt,
			MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteStrictMode,
		})

		respond.Success(w, http.StatusOK, "Login successful "+result.User.Username, respond.Payload{
			"user":  result.User,
			"posts": result.Posts,
		})
	}
}

func Logout(opts CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.TokenCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteStrictMode,
		})
		respond.Success(w, http.StatusOK, "Logged out successfully", nil)
	}
}

func GetProfile(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := users.Profile(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"user": user})
	}
}

func EditProfile(users *services.UserService, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseMultipart(w, r, maxUploadBytes); err != nil {
			writeError(w, r, err)
			return
		}

		picture, err := formFile(r, "profilePicture")
		if err != nil {
			writeError(w, r, err)
			return
		}
		update := services.ProfileUpdate{
			Bio:    r.FormValue("bio"),
			Gender: r.FormValue("gender"),
		}
		if picture != nil {
			defer picture.Close()
			update.Picture = picture
		}

		user, err := users.EditProfile(r.Context(), middleware.UserID(r.Context()), update)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "Profile updated successfully.", respond.Payload{"user": user})
	}
}

func RegisterFCMToken(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := users.RegisterDeviceToken(r.Context(), middleware.UserID(r.Context()), req.Token); err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "FCM token registered successfully", nil)
	}
}
