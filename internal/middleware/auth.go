package middleware

import (
	"net/http"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/result"

	"go.uber.org/zap"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60

var errInvalidSession = apperr.New(apperr.KindUnauthorized, apperr.CodeUnauthorized, "Session expired, please sign in again")

// Auth puts the caller's actor in the request context. A request without
// an access token is anonymous; one with an invalid or expired token is
// rejected and its cookie cleared. Anonymous callers without a cart token
// get a fresh one as a cookie.
func Auth(issuer *auth.Issuer, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionCartID, supplied := auth.ExtractSessionCartID(r)
			if !supplied {
				http.SetCookie(w, &http.Cookie{
					Name:     auth.SessionCartCookie,
					Value:    sessionCartID,
					Path:     "/",
					MaxAge:   sessionCookieMaxAge,
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			actor := auth.Actor{SessionCartID: sessionCartID}

			if tokenStr := auth.ExtractAccessToken(r); tokenStr != "" {
				claims, err := issuer.Parse(tokenStr)
				if err != nil {
					logger.FromCtx(r.Context()).Warn("rejected access token", zap.Error(err))
					http.SetCookie(w, &http.Cookie{Name: auth.AccessTokenCookie, Path: "/", MaxAge: -1})
					result.WriteError(w, r, errInvalidSession)
					return
				}
				actor.UserID = claims.UserID
				actor.Role = claims.Role
			}

			ctx := auth.WithActor(r.Context(), actor)
			if actor.UserID != "" {
				ctx = logger.With(ctx, zap.String("user_id", actor.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom returns the request's actor, anonymous when Auth did not run.
func ActorFrom(r *http.Request) auth.Actor {
	a, _ := auth.FromContext(r.Context())
	return a
}
