package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/handlers"
	"masterboxer.com/project-instaclone/middleware"
	"masterboxer.com/project-instaclone/notify"
	"masterboxer.com/project-instaclone/respond"
	"masterboxer.com/project-instaclone/services"
)

// Deps carries everything the route tables need
type Deps struct {
	Users    *services.UserService
	Posts    *services.PostService
	Messages *services.MessageService
	Hub      *notify.Hub

	Tokens         middleware.TokenParser
	Cookie         handlers.CookieOptions
	MaxUploadBytes int64
	CORSOrigin     string
	// UploadDir is served under /uploads/ when set
	UploadDir string
	Logger    *zap.Logger
}

func (d Deps) auth() func(http.Handler) http.Handler {
	return middleware.Authenticate(d.Tokens)
}

// NewHandler builds the router and wraps it with the shared middleware
func NewHandler(d Deps) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperrors.NotFound("Route not found"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Payload{"success": false, "message": "Method not allowed"})
	})

	router.HandleFunc("/health", handlers.Health()).Methods("GET")
	if d.UploadDir != "" {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))),
		).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	CreateUserRoutes(api, d)
	CreatePostRoutes(api, d)
	CreateMessageRoutes(api, d)

	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var handler http.Handler = router
	handler = middleware.Recover(log)(handler)
	handler = middleware.Logging(log)(handler)
	handler = middleware.CORS(d.CORSOrigin)(handler)
	return handler
}
