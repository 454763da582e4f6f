package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/handlers"
)

func CreateMessageRoutes(router *mux.Router, d Deps) *mux.Router {
	auth := d.auth()

	if d.Hub != nil {
		router.Handle("/message/ws", auth(handlers.Subscribe(d.Hub))).Methods("GET")
	}
	router.Handle("/message/all/{id}", auth(handlers.GetMessages(d.Messages))).Methods("GET")
	router.Handle("/message/send/{id}", auth(handlers.SendMessage(d.Messages))).Methods("POST")
	router.Handle("/message/{id}", auth(handlers.SendMessage(d.Messages))).Methods("POST")

	return router
}
