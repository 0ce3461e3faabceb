package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			pass := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || creds[0] != username || creds[1] != pass {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) AuthTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
			return
		}

		token := parts[1]
		jwtToken, err := app.authenticator.ValidateAccessToken(token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		claims, _ := jwtToken.Claims.(jwt.MapClaims)

		userID, err := strconv.ParseInt(fmt.Sprintf("%.f", claims["sub"]), 10, 64)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx := r.Context()

		user, err := app.store.Users.GetByID(ctx, userID)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, userCtx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(r.RemoteAddr); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter.String())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CheckVenueOwner allows only the venue's owner through.
func (app *application) CheckVenueOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)

		venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid venue ID")
			return
		}

		isOwner, err := app.store.Venues.IsOwner(r.Context(), venueID, user.ID)
		if err != nil {
			app.logger.Errorf("Error checking venue owner: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !isOwner {
			writeJSONError(w, http.StatusForbidden, "Insufficient privileges")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CheckMusicianOwner allows only the musician profile's owner through.
func (app *application) CheckMusicianOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)

		musicianID, err := strconv.ParseInt(chi.URLParam(r, "musicianID"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid musician ID")
			return
		}

		isOwner, err := app.store.Musicians.IsOwner(r.Context(), musicianID, user.ID)
		if err != nil {
			app.logger.Errorf("Error checking musician owner: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !isOwner {
			writeJSONError(w, http.StatusForbidden, "Insufficient privileges")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CheckTeamOwner allows only the team's owner through.
func (app *application) CheckTeamOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)

		teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid team ID")
			return
		}

		isOwner, err := app.store.Teams.IsOwner(r.Context(), teamID, user.ID)
		if err != nil {
			app.logger.Errorf("Error checking team owner: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !isOwner {
			writeJSONError(w, http.StatusForbidden, "Insufficient privileges")
			return
		}

		next.ServeHTTP(w, r)
	})
}
