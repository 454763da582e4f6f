package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/respond"
	"masterboxer.com/project-instaclone/services"
)

func SuggestedUsers(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.Suggested(r.Context(), middleware.UserID(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"users": list})
	}
}

// FollowOrUnfollow toggles the caller's follow of {id}
func FollowOrUnfollow(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := users.FollowOrUnfollow(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, r, err)
			return
		}

		message := "Followed successfully."
		if action == services.Unfollowed {
			message = "Unfollowed successfully."
		}
		respond.Success(w, http.StatusOK, message, respond.Payload{"type": action})
	}
}
