package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
)

func (a *App) credentials() (string, string, error) {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", "", err
	}
	pw, err := a.password(a.out)
	if err != nil {
		return "", "", err
	}
	return email, pw, nil
}

func (a *App) fail(what string, err error) error {
	a.say("%s failed: %v", what, err)
	return err
}

func (a *App) Register(ctx context.Context) error {
	email, pw, err := a.credentials()
	if err != nil {
		return a.fail("register", err)
	}

	u, err := a.svc.Register(ctx, email, pw)
	if err != nil {
		if errors.Is(err, common.ErrWeakPassword) {
			a.say("Password too weak: at least 8 characters with upper case, lower case and a digit")
		}
		return a.fail("register", err)
	}

	a.say("Registered %s (id %s)", u.Email, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, pw, err := a.credentials()
	if err != nil {
		return a.fail("login", err)
	}

	sess, err := a.svc.Login(ctx, email, pw)
	if err != nil {
		if errors.Is(err, common.ErrEmailNotVerified) {
			a.say("Email not verified yet, use resend-verification")
		}
		return a.fail("login", err)
	}

	u, err := a.svc.WhoAmI(ctx)
	if err != nil {
		return a.fail("login", err)
	}
	a.email = u.Email
	a.say("Logged in, session valid until %s", sess.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.svc.WhoAmI(ctx)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrSessionNotFound) {
			a.email = ""
		}
		return a.fail("whoami", err)
	}
	a.printUser(u)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.svc.Logout(ctx); err != nil {
		return a.fail("logout", err)
	}
	a.email = ""
	a.say("Logged out")
	return nil
}

func (a *App) SendVerification(ctx context.Context) error {
	ev, err := a.svc.SendEmailVerification(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNotLoggedIn) {
			a.say("Log in first")
		}
		return a.fail("send-verification", err)
	}
	a.printVerification(ev)
	return nil
}

func (a *App) ResendVerification(ctx context.Context) error {
	email := a.email
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return a.fail("resend-verification", err)
		}
	}

	ev, err := a.svc.ResendEmailVerification(ctx, email)
	if err != nil {
		return a.fail("resend-verification", err)
	}
	a.printVerification(ev)
	return nil
}

func (a *App) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		var err error
		if token, err = GetSimpleText(a.reader, "Enter verification token", a.out); err != nil {
			return a.fail("verify-email", err)
		}
	}

	u, err := a.svc.VerifyEmail(ctx, token)
	if err != nil {
		return a.fail("verify-email", err)
	}
	a.say("Email %s verified", u.Email)
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.svc.Ping(ctx); err != nil {
		return a.fail("ping", err)
	}
	a.say("Server is up")
	return nil
}

func (a *App) printUser(u *models.User) {
	a.say("id:        %s", u.ID)
	a.say("email:     %s", u.Email)
	a.say("created:   %s", u.CreatedAt.Local().Format(time.RFC1123))
	if u.EmailVerifiedAt != nil {
		a.say("verified:  %s", u.EmailVerifiedAt.Local().Format(time.RFC1123))
	} else {
		a.say("verified:  no")
	}
}

func (a *App) printVerification(ev *models.EmailVerification) {
	if ev.Token == "" {
		a.say("Verification email sent to %s, valid until %s", ev.Email, ev.ExpiresAt.Local().Format(time.RFC1123))
		return
	}
	a.say("Verification token for %s (valid until %s):", ev.Email, ev.ExpiresAt.Local().Format(time.RFC1123))
	a.say("%s", ev.Token)
}
