package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/handlers"
)

func CreateUserRoutes(router *mux.Router, d Deps) *mux.Router {
	auth := d.auth()

	router.HandleFunc("/user/register", handlers.Register(d.Users)).Methods("POST")
	router.HandleFunc("/user/login", handlers.Login(d.Users, d.Cookie)).Methods("POST")
	router.HandleFunc("/user/logout", handlers.Logout(d.Cookie)).Methods("GET", "POST")

	router.Handle("/user/suggested", auth(handlers.SuggestedUsers(d.Users))).Methods("GET")
	router.Handle("/user/profile/edit", auth(handlers.EditProfile(d.Users, d.MaxUploadBytes))).Methods("POST")
	router.Handle("/user/fcm-token", auth(handlers.RegisterFCMToken(d.Users))).Methods("POST")
	router.Handle("/user/followorunfollow/{id}", auth(handlers.FollowOrUnfollow(d.Users))).Methods("POST")
	router.Handle("/user/{id}/follow", auth(handlers.FollowOrUnfollow(d.Users))).Methods("POST")
	router.Handle("/user/{id}/profile", auth(handlers.GetProfile(d.Users))).Methods("GET")
	router.HandleFunc("/user/{id}", handlers.GetProfile(d.Users)).Methods("GET")

	return router
}
