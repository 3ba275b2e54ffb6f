// Package session implements the signed session cookie: an HMAC-SHA256
// codec over an opaque payload, the Session type carried inside it, and
// the HTTP cookie plumbing for both the session cookie and the
// short-lived OAuth state cookie.
//
// The session lives entirely on the client. The server holds no session
// table; verification of the signature is the only authentication step,
// and the cookie's max-age is the only expiry mechanism.
package session
