// Package identity implements Qureka's credential store boundary.
//
// It holds the canonical user model, password hashing, login-name
// normalization, and the store interfaces consumed by the auth API. The
// session subsystem calls into it only to resolve a user identity.
package identity
