package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/rbac"
	"github.com/mind-engage/mindengage-admin/internal/validation"
)

const issuer = "mindengage-admin"

type AuthService struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims identify an admin session. Upstream is the bearer token the admin
// API issued at login; it is empty for local sessions.
type Claims struct {
	Sub      string `json:"sub"`
	Role     string `json:"role"` // "admin" or "editor"
	Name     string `json:"name,omitempty"`
	Upstream string `json:"upt,omitempty"`
	Local    bool   `json:"local,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(c Claims) (string, error) {
	now := a.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// Upstream is the part of the admin API client used for sign-in.
type Upstream interface {
	Login(ctx context.Context, req adminapi.LoginRequest) (adminapi.LoginResult, error)
}

// LocalAdmin is the offline break-glass account checked before the upstream.
type LocalAdmin struct {
	Enabled  bool
	User     string
	PassHash string // bcrypt
}

func (l LocalAdmin) matches(user, pass string) bool {
	if !l.Enabled || l.User == "" || user != l.User {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(l.PassHash), []byte(pass)) == nil
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	User        adminapi.User `json:"user"`
	Role        string        `json:"role"`
}

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(a *AuthService, up Upstream, local LocalAdmin, v *validation.Validator, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminapi.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if errs := v.Struct(req); errs != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
			return
		}

		var claims Claims
		var user adminapi.User
		if local.matches(req.Username, req.Password) {
			user = adminapi.User{ID: adminapi.ID(req.Username), Username: req.Username, Role: rbac.RoleAdmin}
			claims = Claims{Sub: req.Username, Role: rbac.RoleAdmin, Name: req.Username, Local: true}
		} else {
			res, err := up.Login(r.Context(), req)
			if err != nil {
				status := adminapi.StatusOf(err)
				switch {
				case status == http.StatusUnauthorized || status == http.StatusForbidden ||
					status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
					writeErr(w, http.StatusUnauthorized, "invalid credentials")
				default:
					log.Warn("login upstream failed", "username", req.Username, "error", err)
					writeErr(w, http.StatusBadGateway, "login service unavailable")
				}
				return
			}
			role := rbac.NormalizeRole(res.User.Role)
			if role == "" {
				writeErr(w, http.StatusForbidden, "account has no admin access")
				return
			}
			user = res.User
			user.Role = role
			sub := string(res.User.ID)
			if sub == "" {
				sub = req.Username
			}
			claims = Claims{Sub: sub, Role: role, Name: res.User.Username, Upstream: res.Token}
		}

		tok, err := a.IssueJWT(claims)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "issue token")
			return
		}
		log.Info("admin signed in", "sub", claims.Sub, "role", claims.Role, "local", claims.Local)
		writeJSON(w, http.StatusOK, loginResponse{
			AccessToken: tok,
			ExpiresIn:   int64(a.ttl / time.Second),
			User:        user,
			Role:        claims.Role,
		})
	}
}

// JWTMiddleware accepts a gateway token and puts the subject, role, claims
// and upstream bearer token into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeErr(w, http.StatusUnauthorized, "missing bearer")
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeErr(w, http.StatusUnauthorized, "bad token")
				return
			}
			ctx := WithClaims(r.Context(), c)
			ctx = WithSubject(ctx, c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			if c.Upstream != "" {
				ctx = adminapi.WithToken(ctx, c.Upstream)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
