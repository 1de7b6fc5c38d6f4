package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/storage"
)

// SendEmailVerification issues a verification token for userID and, when a
// sender is configured, delivers it.
//
// A delivery failure does not revoke the token: the issued verification is
// returned together with an error matching common.ErrEmailSendFailed.
func (a *Auth) SendEmailVerification(ctx context.Context, userID string) (ev *models.EmailVerification, err error) {
	defer func(start time.Time) { a.observe(OpSendEmailVerification, start, err) }(time.Now())

	u, err := a.identity.FindByID(ctx, a.store, userID)
	if err != nil {
		return nil, err
	}
	if u.EmailVerified {
		return nil, common.ErrEmailAlreadyVerified
	}
	return a.issueVerification(ctx, u, false)
}

// ResendEmailVerification looks the user up by email and issues a new
// token. Earlier tokens stay valid unless WithRevokeTokensOnResend is set.
func (a *Auth) ResendEmailVerification(ctx context.Context, email string) (ev *models.EmailVerification, err error) {
	defer func(start time.Time) { a.observe(OpResendEmailVerification, start, err) }(time.Now())

	u, err := a.identity.FindByEmail(ctx, a.store, email)
	if err != nil {
		return nil, err
	}
	if u.EmailVerified {
		return nil, common.ErrEmailAlreadyVerified
	}
	return a.issueVerification(ctx, u, true)
}

func (a *Auth) issueVerification(ctx context.Context, u *models.User, resend bool) (*models.EmailVerification, error) {
	issue := a.tokens.Create
	if resend {
		issue = a.tokens.Resend
	}

	plaintext, tok, err := issue(ctx, a.store, u.ID, models.PurposeEmailVerification, a.opts.verificationTTL)
	if err != nil {
		return nil, err
	}

	ev := &models.EmailVerification{Token: plaintext, Email: u.Email, ExpiresAt: tok.ExpiresAt}
	a.log.Info(ctx, "verification token issued", "user_id", u.ID, "token_id", tok.ID)

	if a.opts.sender == nil {
		return ev, nil
	}
	if err := a.opts.sender.SendVerification(ctx, u.Email, plaintext, tok.ExpiresAt); err != nil {
		a.log.Error(ctx, "verification email failed", "user_id", u.ID, "error", err)
		return ev, fmt.Errorf("%w: %w", common.ErrEmailSendFailed, err)
	}
	return ev, nil
}

// VerifyEmail consumes an email verification token and marks its owner
// verified. Both steps commit together or not at all.
func (a *Auth) VerifyEmail(ctx context.Context, plaintext string) (u *models.User, err error) {
	defer func(start time.Time) { a.observe(OpVerifyEmail, start, err) }(time.Now())

	err = a.store.WithinTx(ctx, func(ctx context.Context, tx storage.Gateway) error {
		owner, err := a.tokens.Consume(ctx, tx, plaintext, models.PurposeEmailVerification)
		if err != nil {
			return err
		}
		if owner.EmailVerified {
			return common.ErrEmailAlreadyVerified
		}
		u, err = a.identity.MarkEmailVerified(ctx, tx, owner.ID, a.opts.now())
		return err
	})
	if err != nil {
		return nil, mapTxErr(err)
	}

	a.log.Info(ctx, "email verified", "user_id", u.ID)
	return u, nil
}

// mapTxErr keeps domain errors as they are and marks anything else coming
// out of begin/commit as a storage failure.
func mapTxErr(err error) error {
	if common.Kind(err) != "internal" {
		return err
	}
	return common.Storage("transaction", err)
}
