// Package password hashes and verifies user passwords and enforces the
// password policy applied at registration.
//
// Two algorithms are supported: Argon2id (default, PHC string encoding) and
// bcrypt. Verifier dispatches on the hash prefix, so switching the configured
// algorithm keeps existing hashes verifiable.
package password
