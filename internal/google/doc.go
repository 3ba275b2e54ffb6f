// Package google implements the OAuth flows against Google's identity
// endpoints: the authorization-code exchange at login, and the
// refresh-token exchange used before every Meet API call.
//
// Refresh-token rotation is the central correctness hazard of the
// whole service: Google may invalidate the presented refresh token and
// issue a new one on any exchange. RefreshAccessToken surfaces the
// rotated token explicitly, and every call site is responsible for
// persisting it to the token store and propagating it into the session
// cookie.
package google
