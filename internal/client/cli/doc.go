// Package cli implements authctl, an interactive shell over the authd gRPC
// API. It is meant for operators and for exercising a deployment by hand.
//
// Commands
//
//	register             create an account
//	login                open a session
//	whoami               show the user behind the current session
//	logout               revoke the current session
//	send-verification    issue an email verification token for the session user
//	verify-email [token] consume a verification token
//	resend-verification  issue a fresh token for an email address
//	ping                 check the server
//	exit | quit          leave the program
package cli
