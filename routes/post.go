package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/handlers"
)

func CreatePostRoutes(router *mux.Router, d Deps) *mux.Router {
	auth := d.auth()

	router.Handle("/post/addpost", auth(handlers.CreatePost(d.Posts, d.MaxUploadBytes))).Methods("POST")
	router.Handle("/post/new", auth(handlers.CreatePost(d.Posts, d.MaxUploadBytes))).Methods("POST")
	router.Handle("/post/all", auth(handlers.GetAllPosts(d.Posts))).Methods("GET")
	router.Handle("/post/userpost/all", auth(handlers.GetUserPosts(d.Posts))).Methods("GET")
	router.Handle("/post/mine", auth(handlers.GetUserPosts(d.Posts))).Methods("GET")
	router.Handle("/post/delete/{id}", auth(handlers.DeletePost(d.Posts))).Methods("DELETE")

	router.Handle("/post/{id}/like", auth(handlers.LikePost(d.Posts))).Methods("GET", "POST")
	router.Handle("/post/{id}/dislike", auth(handlers.DislikePost(d.Posts))).Methods("GET", "POST")
	router.Handle("/post/{id}/comment", auth(handlers.AddComment(d.Posts))).Methods("POST")
	router.Handle("/post/{id}/comment/all", auth(handlers.GetPostComments(d.Posts))).Methods("GET", "POST")
	router.Handle("/post/{id}/bookmark", auth(handlers.BookmarkPost(d.Posts))).Methods("GET", "POST")
	router.Handle("/post/{id}", auth(handlers.DeletePost(d.Posts))).Methods("DELETE")

	return router
}
