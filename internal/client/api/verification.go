package api

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/domain/models"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

// SubmitStudentVerification uploads a rider's student document URL for review.
// Approval is asynchronous; the identity's isStudent flag flips on a later
// login.
func (c *Client) SubmitStudentVerification(ctx context.Context, token string, v models.StudentVerification) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, v.UserID), "api_submit_verification")

	return c.do(ctx, http.MethodPost, "/api/verification", token, v, nil)
}
