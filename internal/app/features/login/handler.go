// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	loginstore "github.com/dalemusser/academyhub/internal/app/store/logins"
	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler exchanges email + password for a bearer token. Sign-in
// outcomes are written to the audit trail.
type Handler struct {
	Users   *userstore.Store
	Logins  *loginstore.Store
	Limiter *ratelimit.LoginLimiter // nil disables throttling
	Audit   *auditlog.Logger
	Auth    *auth.Manager
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, mgr *auth.Manager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   userstore.New(db),
		Logins:  loginstore.New(db),
		Limiter: limiter,
		Auth:    mgr,
		Log:     logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// HandleLogin handles POST /login.
//
// Unknown emails and wrong passwords get the same 401 so the endpoint
// does not reveal which accounts exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			h.Audit.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, nil, req.Email, msg)
			w.Header().Set("Retry-After", "60")
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"status": "error", "kind": "rate_limited", "message": msg})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUnknownEmail, nil, req.Email, "unknown email")
		respond.JSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "invalid email or password"})
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("email", req.Email))
		return
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, req.Email, "wrong password")
		respond.JSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "invalid email or password"})
		return
	}
	if u.Status == models.StatusDisabled {
		h.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, &u.ID, req.Email, "account disabled")
		respond.JSON(w, http.StatusForbidden, map[string]string{"status": "error", "message": "account disabled"})
		return
	}

	token, exp, err := h.Auth.Issue(auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	})
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("user_id", u.ID.Hex()))
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	if err := h.Logins.CreateFrom(ctx, r, *u, time.Now()); err != nil {
		h.Log.Warn("login record not saved", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Audit.LoginSuccess(ctx, r, u.ID, u.Role)
	respond.OK(w, loginResponse{Token: token, ExpiresAt: exp, User: *u})
}
