package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniInventory/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	defaultTokenTTL  = 15 * time.Minute
	tokenLimitPerMin = 5
	limitWindow      = 60 * time.Second
)

type Server struct {
	Log       *zap.Logger
	Operators *Operators
	JWT       *TokenMaker
	TokenTTL  time.Duration
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	limiter := kit.NewIPRateLimiter(tokenLimitPerMin, int(limitWindow.Seconds()))
	r.With(limiter.Middleware).Post("/token", s.handleToken)
	r.With(RequireRole(s.JWT, RoleReader)).Get("/whoami", s.handleWhoAmI)

	return r
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req tokenReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	op, err := s.Operators.Verify(req.Username, req.Password)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	tok, err := s.JWT.New(op.Name, op.Role, ttl)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err), zap.String("operator", op.Name))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, tokenResp{AccessToken: tok, ExpiresIn: int64(ttl.Seconds())})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFromContext(r.Context())
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"operator": c.Subject,
		"role":     c.Role,
	})
}
