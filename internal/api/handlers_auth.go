package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/planbook-app/planbook/internal/middleware"
	"github.com/planbook-app/planbook/internal/supabase"
)

// =============================================================================
// Auth Handlers
// =============================================================================

func signupHandler(client *supabase.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			jsonError(w, "email and password are required", http.StatusBadRequest)
			return
		}

		session, err := client.Auth().SignUp(r.Context(), supabase.SignUpRequest{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		user := session.User
		if user == nil {
			jsonError(w, "signup failed", http.StatusBadRequest)
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"message": "User created successfully",
			"user": map[string]interface{}{
				"id":                 user.ID,
				"email":              user.Email,
				"created_at":         user.CreatedAt,
				"email_confirmed_at": user.EmailConfirmedAt,
			},
		})
	}
}

func loginHandler(client *supabase.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request", http.StatusBadRequest)
			return
		}

		if req.Email == "" || req.Password == "" {
			jsonError(w, "email and password are required", http.StatusBadRequest)
			return
		}

		session, err := client.Auth().SignInWithPassword(r.Context(), req.Email, req.Password)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		payload := map[string]interface{}{
			"message":      "Login successful",
			"access_token": session.AccessToken,
		}
		if session.User != nil {
			payload["user"] = map[string]interface{}{
				"id":    session.User.ID,
				"email": session.User.Email,
			}
		}

		respondJSON(w, statusSuccess, payload)
	}
}

func logoutHandler(client *supabase.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Revoke the token server-side when one was presented. A failed
		// revocation surfaces so the client does not discard a live token.
		if token := middleware.TokenFromContext(r.Context()); token != "" {
			if err := client.Auth().SignOut(r.Context(), token); err != nil {
				jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		respondJSON(w, statusSuccess, map[string]string{
			"message": "Logged out successfully",
		})
	}
}

func currentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		respondJSON(w, statusSuccess, map[string]interface{}{
			"user": map[string]interface{}{
				"id":    user.ID,
				"email": user.Email,
			},
		})
	}
}
