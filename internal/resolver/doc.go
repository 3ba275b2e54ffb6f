// Package resolver implements the per-request decision logic behind the
// main "/" route: resolve identity from the session cookie or an opaque
// owner alias, decide whether a meeting must be provisioned, apply the
// domain-based visibility policy, and choose between an immediate
// redirect, a selection view, and an error page.
//
// The resolver never renders; it produces an Outcome value that the
// HTTP server turns into a response. Token rotations observed during
// provisioning are surfaced through Outcome.UpdatedSession so the
// server can rewrite the session cookie.
package resolver
