package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ordersheet/internal/core"
)

type authClaimsKey struct{}

// AuthClaims holds the authenticated user's identity extracted from the JWT.
type AuthClaims struct {
	Username string
	Role     string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// jwtClaims is the JWT payload struct used for signing and parsing. The
// userId field carries the username; the sheet has no numeric IDs.
type jwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) parseToken(raw string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireAuth is chi middleware that validates the Authorization bearer
// token and injects AuthClaims into the request context. A missing token is
// 401; a token that fails verification is 403, matching the legacy gate.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "Access token required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		claims, err := h.parseToken(raw)
		if err != nil {
			writeError(w, r, "Invalid token", "FORBIDDEN", http.StatusForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			Username: claims.UserID,
			Role:     claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

type userPayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, "Username và password là bắt buộc", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	account, err := h.svc.Accounts.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, core.ErrUnknownUser):
		writeError(w, r, "Tài khoản không tồn tại", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	case errors.Is(err, core.ErrWrongPassword):
		writeError(w, r, "Mật khẩu không đúng", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	case err != nil:
		writeError(w, r, "Lỗi server", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	claims := &jwtClaims{
		UserID: account.Username,
		Role:   account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"success": true,
		"message": "Đăng nhập thành công",
		"data": map[string]any{
			"token": signed,
			"user":  userPayload{Username: account.Username, Role: account.Role},
		},
	})
}

// verifyToken handles POST /api/auth/verify — validates a token supplied in
// the body and echoes the identity it carries.
func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, r, "Token là bắt buộc", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	claims, err := h.parseToken(req.Token)
	if err != nil {
		writeError(w, r, "Token không hợp lệ", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"data": map[string]any{
			"user": userPayload{Username: claims.UserID, Role: claims.Role},
		},
	})
}

// initAccounts handles POST /api/auth/init-accounts — seeds the default
// accounts when the Account sheet is empty.
func (h *Handler) initAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, created, err := h.svc.Accounts.InitDefaults(r.Context())
	if err != nil {
		writeError(w, r, "Failed to initialize accounts", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	message := "Accounts already exist"
	if created {
		message = "Default accounts created successfully"
	}
	users := make([]userPayload, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, userPayload{Username: a.Username, Role: a.Role})
	}
	writeJSON(w, map[string]any{
		"success": true,
		"message": message,
		"data":    users,
	})
}
