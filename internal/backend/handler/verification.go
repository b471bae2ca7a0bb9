package handler

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/backend/handler/dto"
	"github.com/gocar-app/gocar/internal/backend/middleware"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/validator"
)

type VerificationService interface {
	Submit(ctx context.Context, v models.StudentVerification) error
}

type Verification struct {
	verification VerificationService
	l            logger.Logger
}

func NewVerification(verification VerificationService, l logger.Logger) *Verification {
	return &Verification{
		verification: verification,
		l:            l,
	}
}

func (h *Verification) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_verification")

	req := &dto.VerificationRequest{}
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

	if account := middleware.AccountFromContext(ctx); account == nil || account.ID != req.UserID {
		errorResponse(w, http.StatusForbidden, "userId does not match the authenticated user")
		return
	}

	if err := h.verification.Submit(ctx, models.StudentVerification{UserID: req.UserID, DocsURL: req.DocsURL}); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to save verification", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, envelope{"success": true, "message": "verification submitted"}, nil); err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to write JSON response")
	}
}
