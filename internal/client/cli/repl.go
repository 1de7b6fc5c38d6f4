package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
	SendVerification(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context) error
	Ping(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a until input
// ends or the user types exit. Command errors are reported by the commands
// themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("authctl%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, send-verification, verify-email, resend-verification, logout, ping, exit")
			} else {
				printlnFn("Available commands: register, login, verify-email, resend-verification, ping, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "send-verification":
			_ = a.SendVerification(ctx)

		case "verify-email":
			token := ""
			if len(parts) > 1 {
				token = parts[1]
			}
			_ = a.VerifyEmail(ctx, token)

		case "resend-verification":
			_ = a.ResendVerification(ctx)

		case "ping":
			_ = a.Ping(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
