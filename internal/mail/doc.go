// Package mail delivers verification tokens. SMTPSender talks to a relay,
// LogSender only logs, and Queue moves delivery off the request path with
// bounded retries.
package mail
