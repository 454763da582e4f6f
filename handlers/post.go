package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/respond"
	"masterboxer.com/project-instaclone/services"
)

type commentRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

func CreatePost(posts *services.PostService, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseMultipart(w, r, maxUploadBytes); err != nil {
			writeError(w, r, err)
			return
		}

		image, err := formFile(r, "image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if image == nil {
			writeError(w, r, apperrors.Validation("Image is required"))
			return
		}
		defer image.Close()

		post, err := posts.Create(r.Context(), middleware.UserID(r.Context()), r.FormValue("caption"), image)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "Post created successfully", respond.Payload{"post": post})
	}
}

func GetAllPosts(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := posts.All(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"posts": list})
	}
}

func GetUserPosts(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := posts.ByAuthor(r.Context(), middleware.UserID(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"posts": list})
	}
}

func LikePost(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := posts.Like(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "Post liked", nil)
	}
}

func DislikePost(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := posts.Dislike(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "Post disliked", nil)
	}
}

func AddComment(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		comment, err := posts.Comment(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], req.Text)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "Comment added", respond.Payload{"comment": comment})
	}
}

func GetPostComments(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comments, err := posts.Comments(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", respond.Payload{"comments": comments})
	}
}

func DeletePost(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := posts.Delete(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
			writeError(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "Post deleted", nil)
	}
}

func BookmarkPost(posts *services.PostService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := posts.ToggleBookmark(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, r, err)
			return
		}

		message := "Post bookmarked"
		if action == services.Unsaved {
			message = "Post removed from bookmark"
		}
		respond.Success(w, http.StatusOK, message, respond.Payload{"type": action})
	}
}
