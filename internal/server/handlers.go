package server

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/logging"
	"github.com/teemow/meetgate/internal/resolver"
	"github.com/teemow/meetgate/internal/session"
)

// handleIndex serves "/": the main meeting resolver. The decision
// logic lives in the resolver package; this handler only translates
// between HTTP and resolver outcomes.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := resolver.Request{
		Session:    session.FromRequest(r, s.cfg.CookieSecret),
		OwnerAlias: q.Get("owner"),
		ShowPublic: q.Has("public") && q.Get("public") != "0",
	}

	out := s.resolver.Resolve(r.Context(), req)

	if req.OwnerAlias != "" && s.audit != nil {
		ev := instrumentation.NewAccessEvent(instrumentation.ActionShareResolved).
			WithAlias(req.OwnerAlias).
			WithSpanContext(r.Context()).
			Complete(out.Kind == resolver.KindRedirect, nil)
		s.audit.LogAccess(ev)
	}

	// Cookies must be written before the response body starts.
	if out.UpdatedSession != nil {
		if err := session.Write(w, out.UpdatedSession, s.cfg.CookieSecret); err != nil {
			s.logger.Error("failed to update session cookie", logging.Err(err))
		}
	}

	switch out.Kind {
	case resolver.KindRedirect:
		s.renderRedirect(w, out.RedirectURL)
	case resolver.KindSelection:
		s.renderSelection(w, out)
	default:
		s.renderError(w, out.Status, out.Title, out.Message, out.BackLink)
	}
}

func (s *Server) renderSelection(w http.ResponseWriter, out resolver.Outcome) {
	data := selectionData{
		SignedIn:   out.SignedIn,
		Email:      out.ActiveEmail,
		ShareAlias: out.ShareAlias,
		Meetings:   make([]clientMeeting, 0, len(out.Meetings)),
	}
	for _, m := range out.Meetings {
		cm := clientMeeting{
			URL:           m.URL,
			Name:          m.Name,
			IsCurrentUser: out.SignedIn && m.Email == out.ActiveEmail,
		}
		if cm.IsCurrentUser {
			data.AutoRedirectURL = m.URL
		}
		data.Meetings = append(data.Meetings, cm)
	}
	data.ShouldAutoRedirect = out.AutoRedirect && data.AutoRedirectURL != ""

	s.renderHTML(w, http.StatusOK, selectionTmpl, data)
}

// handleNew always provisions a fresh meeting that is never cached.
// Signed-out visitors fall back to the configured default token.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromRequest(r, s.cfg.CookieSecret)

	refreshToken := s.cfg.DefaultToken
	if sess != nil {
		refreshToken = sess.RefreshToken
	}
	if refreshToken == "" {
		s.renderError(w, http.StatusInternalServerError, "failed to create meeting",
			"No credentials available. Sign in to create a meeting.", "/login")
		return
	}

	refreshed, err := s.oauth.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		s.logger.Error("failed to create meeting", logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "failed to create meeting", err.Error(), "/login")
		return
	}

	if refreshed.NewRefreshToken != "" && sess != nil {
		if err := s.tokens.Store(ctx, sess.Email, refreshed.NewRefreshToken, sess.Name); err != nil {
			s.logger.Error("failed to persist rotated token",
				logging.Err(err), logging.UserHash(sess.Email))
			s.renderError(w, http.StatusInternalServerError, "failed to create meeting", err.Error(), "/login")
			return
		}
		if err := session.Write(w, sess.WithRefreshToken(refreshed.NewRefreshToken), s.cfg.CookieSecret); err != nil {
			s.logger.Error("failed to update session cookie", logging.Err(err))
		}
	}

	meetURL, err := s.spaces.CreateSpace(ctx, refreshed.AccessToken)
	if err != nil {
		s.logger.Error("failed to create meeting", logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "failed to create meeting", err.Error(), "/login")
		return
	}

	s.renderRedirect(w, meetURL)
}

// handleMe shows the signed-in user's identity and direct link.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r, s.cfg.CookieSecret)
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	shareAlias, err := s.aliases.GetOrCreate(r.Context(), sess.Email)
	if err != nil {
		s.logger.Error("failed to resolve share alias",
			logging.Err(err), logging.UserHash(sess.Email))
		s.renderError(w, http.StatusInternalServerError, "something went wrong", err.Error(), "")
		return
	}

	s.renderHTML(w, http.StatusOK, meTmpl, meData{
		Name:  sess.Name,
		Email: sess.Email,
		Alias: shareAlias,
	})
}

// handleLogin starts the OAuth flow: a fresh state token in a
// short-lived cookie, then a redirect to the consent screen.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := session.NewStateToken()
	if err != nil {
		s.logger.Error("failed to generate state token", logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "login failed",
			"Could not start the sign-in flow. Please try again.", "")
		return
	}

	session.WriteStateCookie(w, state)
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// handleCallback finishes the OAuth flow. Identity failures render
// 4xx pages with a link back to sign-in; the session cookie is only
// written once the exchange fully succeeds.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.renderError(w, http.StatusBadRequest, "login failed",
			"Google returned an error: "+errParam, "/login")
		return
	}

	code := q.Get("code")
	if code == "" {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.renderError(w, http.StatusBadRequest, "login failed",
			"No authorization code received.", "/login")
		return
	}

	// The state cookie is single use; clear it before validating.
	stateCookie := session.StateFromRequest(r)
	session.ClearStateCookie(w)
	if stateParam := q.Get("state"); stateParam == "" || stateCookie == "" || stateParam != stateCookie {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.renderError(w, http.StatusBadRequest, "login failed",
			"Invalid OAuth state. Please try again.", "/login")
		return
	}

	res, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.logger.Error("oauth callback failed", logging.Err(err))
		switch {
		case errors.Is(err, google.ErrNoRefreshToken):
			s.renderError(w, http.StatusBadRequest, "login failed",
				"No refresh token received. Try revoking app access at myaccount.google.com/permissions and logging in again.", "/login")
		case errors.Is(err, google.ErrNoIDToken):
			s.renderError(w, http.StatusBadRequest, "login failed",
				"No id_token received. Make sure the OAuth scope includes openid.", "/login")
		default:
			s.renderError(w, http.StatusInternalServerError, "login failed", err.Error(), "/login")
		}
		return
	}

	// The token record and the share alias are independent writes.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.tokens.Store(gctx, res.Email, res.RefreshToken, res.Name) })
	g.Go(func() error {
		_, err := s.aliases.GetOrCreate(gctx, res.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.logger.Error("failed to persist login",
			logging.Err(err), logging.UserHash(res.Email))
		s.renderError(w, http.StatusInternalServerError, "login failed", err.Error(), "/login")
		return
	}

	sess := &session.Session{
		RefreshToken: res.RefreshToken,
		Email:        res.Email,
		Name:         res.Name,
	}
	if err := session.Write(w, sess, s.cfg.CookieSecret); err != nil {
		s.recordAuth(r, instrumentation.OAuthResultFailure)
		s.logger.Error("failed to write session cookie", logging.Err(err))
		s.renderError(w, http.StatusInternalServerError, "login failed", err.Error(), "/login")
		return
	}

	s.recordAuth(r, instrumentation.OAuthResultSuccess)
	if s.audit != nil {
		s.audit.LogAccess(instrumentation.NewAccessEvent(instrumentation.ActionLogin).
			WithUser(res.Email).
			WithSpanContext(ctx).
			CompleteSuccess())
	}
	s.logger.Info("user signed in", logging.UserHash(res.Email))

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout clears the session cookie. The stored refresh token and
// alias survive so direct links keep working.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.audit != nil {
		ev := instrumentation.NewAccessEvent(instrumentation.ActionLogout).WithSpanContext(r.Context())
		if sess := session.FromRequest(r, s.cfg.CookieSecret); sess != nil {
			ev.WithUser(sess.Email)
		}
		s.audit.LogAccess(ev.CompleteSuccess())
	}

	session.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) recordAuth(r *http.Request, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOAuthAuth(r.Context(), result)
}
