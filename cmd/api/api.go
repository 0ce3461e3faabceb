package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/THEGREATCJPark/jazzlink/docs" //this is required to generate swagger docs
	"github.com/THEGREATCJPark/jazzlink/internal/auth"
	"github.com/THEGREATCJPark/jazzlink/internal/domain/profiles"
	"github.com/THEGREATCJPark/jazzlink/internal/domain/ratings"
	"github.com/THEGREATCJPark/jazzlink/internal/mailer"
	"github.com/THEGREATCJPark/jazzlink/internal/notifications"
	"github.com/THEGREATCJPark/jazzlink/internal/places"
	"github.com/THEGREATCJPark/jazzlink/internal/ratelimiter"
	"github.com/THEGREATCJPark/jazzlink/internal/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	push          notifications.PushSender
	places        *places.Client
	ratings       *ratings.Service
	profiles      *profiles.Service
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
	places      placesConfig
	invite      inviteConfig
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

type placesConfig struct {
	apiKey string
}

type inviteConfig struct {
	salt string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Get("/admin/affiliations/drift", app.affiliationDriftHandler)
		r.With(app.BasicAuthMiddleware()).Post("/admin/push-tokens/bulk-remove", app.bulkRemoveTokensHandler)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		// Route that does NOT require authentication
		r.Put("/users/activate/{token}", app.activateUserHandler)

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Put("/", app.updateUserHandler)
			r.Post("/account-type", app.setAccountTypeHandler)
			r.Post("/profile-picture", app.uploadProfilePictureHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.savePushTokenHandler)
			r.Delete("/push-tokens", app.removePushTokenHandler)
		})

		r.Route("/venues", func(r chi.Router) {
			r.Get("/", app.listVenuesHandler)
			r.Get("/{venueID}", app.getVenueHandler)
			r.Get("/{venueID}/reviews", app.getVenueReviewsHandler)
			r.Get("/{venueID}/performances", app.listVenuePerformancesHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createVenueHandler)
				r.Post("/{venueID}/reviews", app.createVenueReviewHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.CheckVenueOwner)
					r.Patch("/{venueID}", app.updateVenueHandler)
					r.Post("/{venueID}/photos", app.uploadVenuePhotoHandler)
					r.Delete("/{venueID}/photos", app.deleteVenuePhotoHandler) // DELETE /venues/{venueID}/photos?photo_url={url}
					r.Post("/{venueID}/enrich", app.enrichVenueHandler)
					r.Post("/{venueID}/performances", app.createPerformanceHandler)
				})
			})
		})

		r.Route("/musicians", func(r chi.Router) {
			r.Get("/", app.listMusiciansHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Get("/me", app.getMyMusicianHandler)
				r.Post("/", app.createMusicianHandler)
				r.With(app.CheckMusicianOwner).Put("/{musicianID}", app.updateMusicianHandler)
				r.Post("/{musicianID}/reviews", app.createMusicianReviewHandler)
			})

			r.Get("/{musicianID}", app.getMusicianHandler)
			r.Get("/{musicianID}/reviews", app.getMusicianReviewsHandler)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", app.listTeamsHandler)
			r.Get("/{teamID}", app.getTeamHandler)
			r.Get("/{teamID}/reviews", app.getTeamReviewsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createTeamHandler)
				r.Post("/join", app.joinTeamHandler)
				r.Post("/{teamID}/reviews", app.createTeamReviewHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.CheckTeamOwner)
					r.Put("/{teamID}", app.updateTeamHandler)
					r.Put("/{teamID}/members", app.replaceTeamMembersHandler)
					r.Post("/{teamID}/leader", app.setTeamLeaderHandler)
					r.Post("/{teamID}/invite", app.createTeamInviteHandler)
				})
			})
		})

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", app.listPostsHandler)
			r.Get("/{postID}", app.getPostHandler)
			r.Get("/{postID}/comments", app.listCommentsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createPostHandler)
				r.Post("/{postID}/view", app.addPostViewHandler)
				r.Put("/{postID}/like", app.likePostHandler)
				r.Delete("/{postID}/like", app.unlikePostHandler)
				r.Post("/{postID}/comments", app.createCommentHandler)
			})
		})

		r.Get("/performances", app.listUpcomingPerformancesHandler)
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
