package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/meme-madness/meme-madness/handlers"
	"github.com/meme-madness/meme-madness/middleware"
)

// SetupRoutes mounts the API. Everything except signup/login sits behind
// JWT auth; admin-only checks live in the services, not here.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	memeHandler *handlers.MemeHandler,
	votingHandler *handlers.VotingHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Live bracket updates; the ws handshake carries no Authorization
	// header from browsers, so this stays open like the rest of the pack
	// does it.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Get("/auth/me", authHandler.Me)

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", tournamentHandler.Create)
			r.Post("/join", tournamentHandler.Join)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.Get)
				r.Get("/bracket", tournamentHandler.Bracket)
				r.Get("/members", tournamentHandler.Members)

				r.Post("/memes", memeHandler.Upload)
				r.Get("/memes", memeHandler.ListByTournament)
				r.Get("/memes/mine", memeHandler.ListMine)

				// Organizer operations
				r.Post("/seed", adminHandler.SeedBracket)
				r.Post("/advance", adminHandler.AdvanceRound)
				r.Post("/matchups/close-all", adminHandler.CloseAllMatchups)
				r.Get("/dashboard", adminHandler.Dashboard)
				r.Get("/join-code", adminHandler.JoinCode)
				r.Post("/join-code/rotate", adminHandler.RotateJoinCode)
				r.Delete("/members/{userID}", adminHandler.RemoveMember)
				r.Get("/admins", adminHandler.ListAdmins)
				r.Post("/admins", adminHandler.AddAdmin)
				r.Delete("/admins/{userID}", adminHandler.RemoveAdmin)
			})
		})

		r.Route("/memes/{memeID}", func(r chi.Router) {
			r.Delete("/", memeHandler.Delete)
		})

		r.Route("/matchups/{matchupID}", func(r chi.Router) {
			r.Post("/votes", votingHandler.CastVote)
			r.Get("/votes/mine", votingHandler.MyVote)
			r.Get("/results", votingHandler.Results)

			r.Post("/close", adminHandler.CloseMatchup)
			r.Post("/tie-break", adminHandler.BreakTie)
		})
	})
}
