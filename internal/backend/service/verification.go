package service

import (
	"context"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

type Verification struct {
	store store.VerificationStore
	log   logger.Logger
}

func NewVerification(st store.VerificationStore, log logger.Logger) *Verification {
	return &Verification{store: st, log: log}
}

// Submit records a student verification request. Review is manual; the
// isStudent flag flips out of band.
func (s *Verification) Submit(ctx context.Context, v models.StudentVerification) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, v.UserID), "verification_submit")

	if err := s.store.SaveVerification(ctx, &v); err != nil {
		return wrap.Error(ctx, err)
	}
	s.log.Info(ctx, "student verification submitted")
	return nil
}
