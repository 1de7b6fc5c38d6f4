// Package auth is the single entry point of the authentication core.
//
// An *Auth is built once with New and shared by any number of goroutines.
// It holds the storage gateway and the injected capabilities (password
// hasher, optional email sender, metrics recorder) and sequences calls to
// the identity, session and token components. Every failure it returns
// matches one of the sentinels in internal/common via errors.Is.
package auth
