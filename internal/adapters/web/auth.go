package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fakturabg/internal/app"
	"fakturabg/internal/core"
)

type authUserKey struct{}

// authFromContext returns the authenticated user stored in ctx, or nil.
func authFromContext(ctx context.Context) *core.User {
	v, _ := ctx.Value(authUserKey{}).(*core.User)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing. Only the
// user ID is embedded; role and company membership are read from the store
// on every request so a new company or role takes effect immediately.
type jwtClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

const authCookieName = "auth_token"

// bearerOrCookieToken pulls the JWT from the Authorization header or the
// auth cookie. The header wins when both are present.
func bearerOrCookieToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth validates the JWT, loads the user, and injects it into the
// request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerOrCookieToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		user, err := h.svc.GetUser(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCompany returns the authenticated user, rejecting with 400 when the
// account does not belong to a company yet.
func requireCompany(w http.ResponseWriter, r *http.Request) *core.User {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return nil
	}
	if user.CompanyID == "" {
		writeError(w, r, "account is not attached to a company", "NO_COMPANY", http.StatusBadRequest)
		return nil
	}
	return user
}

const tokenTTL = 7 * 24 * time.Hour

func (h *Handler) issueToken(w http.ResponseWriter, user *core.User) (string, error) {
	claims := &jwtClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(tokenTTL / time.Second),
	})
	return signed, nil
}

type authResponse struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

// register handles POST /api/auth/register.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), app.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	signed, err := h.issueToken(w, user)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "create",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, authResponse{User: user, Token: signed})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, "invalid email or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	signed, err := h.issueToken(w, user)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	h.svc.LogAction(r.Context(), core.AuditEntry{
		CompanyID:  user.CompanyID,
		UserID:     user.ID,
		UserName:   user.Name,
		Action:     "login",
		EntityType: "user",
		EntityID:   user.ID,
		IPAddress:  clientIP(r),
	})
	writeJSON(w, authResponse{User: user, Token: signed})
}

// logout handles POST /api/auth/logout and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := authFromContext(r.Context())
	if user == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	writeJSON(w, user)
}

// clientIP reports the peer address, preferring the first X-Forwarded-For
// entry when a proxy added one.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
