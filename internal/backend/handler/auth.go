package handler

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/backend/handler/dto"
	"github.com/gocar-app/gocar/internal/backend/service"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/validator"
)

type AuthService interface {
	Register(ctx context.Context, role types.Role, p service.RegisterParams) (*models.Identity, error)
	LoginUser(ctx context.Context, phone, password string) (*models.Identity, error)
	LoginDriver(ctx context.Context, email, password string) (*models.Identity, error)
}

type Auth struct {
	auth AuthService
	l    logger.Logger
}

func NewAuth(auth AuthService, l logger.Logger) *Auth {
	return &Auth{
		auth: auth,
		l:    l,
	}
}

func (h *Auth) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_user")

	req := &dto.RegisterUserRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	identity, err := h.auth.Register(ctx, types.RoleUser, req.ToParams())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register user", err)
		serviceErrorResponse(w, err)
		return
	}

	writeUser(w, h.l, ctx, http.StatusCreated, identity)
}

func (h *Auth) LoginUser(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_user")

	req := &dto.LoginUserRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	identity, err := h.auth.LoginUser(ctx, req.Phone, req.Password)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeUser(w, h.l, ctx, http.StatusOK, identity)
}

func (h *Auth) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_driver")

	req := &dto.RegisterDriverRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	identity, err := h.auth.Register(ctx, types.RoleDriver, req.ToParams())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register driver", err)
		serviceErrorResponse(w, err)
		return
	}

	writeUser(w, h.l, ctx, http.StatusCreated, identity)
}

func (h *Auth) LoginDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_driver")

	req := &dto.LoginDriverRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	identity, err := h.auth.LoginDriver(ctx, req.Email, req.Password)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeUser(w, h.l, ctx, http.StatusOK, identity)
}

func writeUser(w http.ResponseWriter, l logger.Logger, ctx context.Context, status int, identity *models.Identity) {
	if err := writeJSON(w, status, envelope{"success": true, "user": identity}, nil); err != nil {
		l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		errorResponse(w, http.StatusInternalServerError, "failed to write JSON response")
	}
}
