package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/models"
)

// Service is the remote API the shell drives.
type Service interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	WhoAmI(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	SendEmailVerification(ctx context.Context) (*models.EmailVerification, error)
	ResendEmailVerification(ctx context.Context, email string) (*models.EmailVerification, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	Close() error
}

type App struct {
	svc    Service
	reader *bufio.Reader
	out    io.Writer
	email  string

	password func(w io.Writer) (string, error)
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.New(c.ServerAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(apiClient, os.Stdin, os.Stdout), nil
}

func newApp(svc Service, in io.Reader, out io.Writer) *App {
	return &App{svc: svc, reader: bufio.NewReader(in), out: out, password: GetPassword}
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) status() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

func (a *App) say(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Run starts the shell and blocks until the user leaves or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.svc.Close()

	a.say("Welcome to authctl (type 'help' for commands)")
	if err := a.svc.Ping(ctx); err != nil {
		a.say("warning: server not reachable: %v", err)
	}

	runREPL(ctx, a, a.status, a.reader)
}
