// Package client is the authctl side of the gophauth.v1.AuthService gRPC
// API. It keeps the current session token and attaches it to every call.
package client
