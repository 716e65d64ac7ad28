package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/bessleague/bessleague/pkg/log"
)

type identity struct {
	Subject string
	Email   string
}

// authMiddleware requires a valid OIDC bearer token when audiences are
// configured. Without audiences every request is let through.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if len(s.oidcVerifiers) == 0 {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Ctx(ctx).WarnContext(ctx, "missing auth header")
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}
		id, err := s.authenticateToken(ctx, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}
		if len(s.allowedEmails) > 0 && !slices.Contains(s.allowedEmails, id.Email) {
			log.Ctx(ctx).WarnContext(ctx, "email not allowed", slog.String("subject", id.Subject), slog.String("email", id.Email))
			writeJSONError(w, "access denied", http.StatusForbidden)
			return
		}

		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("authSubject", id.Subject)))
		log.Ctx(ctx).DebugContext(ctx, "authenticated request", slog.String("email", id.Email))
		ctx = context.WithValue(ctx, identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) authenticateToken(ctx context.Context, token string) (identity, error) {
	var errs []error

	for providerName, verifier := range s.oidcVerifiers {
		idToken, err := verifier(ctx, token)
		if err == nil {
			var claims struct {
				Email string `json:"email"`
			}
			// a token without claims still identifies its subject
			if cerr := idToken.Claims(&claims); cerr != nil {
				log.Ctx(ctx).DebugContext(ctx, "failed to read token claims", slog.Any("error", cerr))
			}
			return identity{Subject: idToken.Subject, Email: claims.Email}, nil
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %v", providerName, err))
	}

	if len(errs) > 1 {
		return identity{}, errors.Join(errs...)
	}
	if len(errs) == 1 {
		return identity{}, errs[0]
	}
	return identity{}, errors.New("no valid audiences configured or token invalid")
}

func (s *Server) getIdentity(r *http.Request) identity {
	if id, ok := r.Context().Value(identityContextKey).(identity); ok {
		return id
	}
	return identity{}
}
