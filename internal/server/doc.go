// Package server is the user-facing HTTP layer: the meeting resolver
// routes, the Google OAuth sign-in flow, the profile and informational
// pages, plus health probes and the dedicated metrics listener. All
// HTML is rendered inline from templates; there are no static assets.
package server
