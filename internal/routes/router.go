package routes

import (
	"log/slog"
	"net/http"

	"gamejournal/internal/cache"
	"gamejournal/internal/clients/rawg"
	"gamejournal/internal/controllers"
	appmiddleware "gamejournal/internal/middleware"
	"gamejournal/internal/services"
	"gamejournal/internal/storage/mariadb"
	"gamejournal/internal/storage/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Log      *slog.Logger
	Storage  *mariadb.Storage
	Uploads  uploads.IUploads
	Cache    *cache.Cache
	Metadata *rawg.Client
	Cors     []string
}

func SetupRouter(deps Deps, authSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Cors,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	friendService := services.NewFriendService(deps.Storage, deps.Log)
	profileService := services.NewProfileService(deps.Storage, friendService, deps.Log)
	entryService := services.NewEntryService(deps.Storage, deps.Log)
	feedService := services.NewFeedService(deps.Storage, friendService, deps.Log)
	discoverService := services.NewDiscoverService(deps.Storage, deps.Cache, deps.Log)
	favoriteService := services.NewFavoriteService(deps.Storage, deps.Log)
	gameService := services.NewGameService(deps.Storage, deps.Metadata, deps.Log)

	auth := appmiddleware.NewAuthMiddleware(authSecret, profileService)

	entryController := controllers.NewEntryController(entryService, deps.Log)
	friendController := controllers.NewFriendController(friendService, deps.Log)
	feedController := controllers.NewFeedController(feedService, deps.Log)
	discoverController := controllers.NewDiscoverController(discoverService, deps.Log)
	favoriteController := controllers.NewFavoriteController(favoriteService, deps.Log)
	gameController := controllers.NewGameController(gameService, deps.Log)
	profileController := controllers.NewProfileController(profileService, friendService, deps.Log, deps.Uploads)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","app":"GameJournal"}`))
		})

		// Public surface.
		r.Get("/public/games", discoverController.Discover)
		r.Get("/public/games/{id}", discoverController.GameDetail)
		r.Get("/games", gameController.List)
		r.Get("/games/{id}", gameController.GetByID)
		r.Get("/users/{username}/friends", profileController.PublicFriends)
		r.With(auth.OptionalToken).Get("/users/{username}", profileController.PublicProfile)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.ValidateToken)

			r.Get("/whoami", profileController.Whoami)
			r.Get("/stats", entryController.Stats)
			r.Put("/account/username", profileController.UpdateUsername)
			r.Post("/account/avatar", profileController.UploadAvatar)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", entryController.List)
				r.Post("/", entryController.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", entryController.Update)
					r.Delete("/", entryController.Delete)
					r.Get("/sessions", entryController.ListSessions)
					r.Post("/sessions", entryController.CreateSession)
					r.Delete("/sessions/{sessionID}", entryController.DeleteSession)
				})
			})

			r.Get("/feed", feedController.Feed)

			r.Route("/friend-requests", func(r chi.Router) {
				r.Get("/", friendController.ListRequests)
				r.Post("/", friendController.SendRequest)
				r.Post("/{id}/accept", friendController.Accept)
				r.Post("/{id}/decline", friendController.Decline)
				r.Post("/{id}/cancel", friendController.Cancel)
			})

			r.Get("/friends", friendController.ListFriends)
			r.Delete("/friends/{userID}", friendController.Unfriend)

			r.Get("/favorites", favoriteController.Get)
			r.Put("/favorites", favoriteController.Replace)

			r.Post("/games", gameController.Create)
			r.Patch("/games/{id}", gameController.Update)
			r.Get("/search/games", gameController.SearchExternal)
			r.Post("/import/game", gameController.Import)
			r.Post("/import/backfill", gameController.Backfill)
		})
	})

	return r
}
