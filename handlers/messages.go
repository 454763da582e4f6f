package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/logger"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/respond"
	"masterboxer.com/project-instaclone/services"
)

type messageRequest struct {
	Message string `json:"message" validate:"required"`
}

func SendMessage(messages *services.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		msg, err := messages.Send(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], req.Message)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "Message sent", respond.Payload{"newMessage": msg})
	}
}

func GetMessages(messages *services.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := messages.Messages(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"messages": list})
	}
}

// Subscribe upgrades to a websocket that streams the caller's events
func Subscribe(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if err := hub.ServeWS(w, r, userID); err != nil {
			// the upgrader has already answered the request
			logger.Get().Debug("Websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}
