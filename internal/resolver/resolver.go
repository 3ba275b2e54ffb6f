package resolver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teemow/meetgate/internal/alias"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/logging"
	"github.com/teemow/meetgate/internal/meetings"
	"github.com/teemow/meetgate/internal/provision"
	"github.com/teemow/meetgate/internal/session"
	"github.com/teemow/meetgate/internal/tokens"
)

// DefaultUserKey is the fallback identity that owns meetings created for
// signed-out visitors of an empty cache. It is classified as public so
// those meetings stay visible to everyone.
const DefaultUserKey = "__default__"

// consumerDomains are the identity provider's free consumer email
// domains. Meetings owned by these domains (and the default identity)
// are "public" for visibility filtering.
var consumerDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// MeetingProvisioner creates a Meet space and records it in the cache.
type MeetingProvisioner interface {
	CreateAndStore(ctx context.Context, email, name, refreshToken string) (provision.Result, error)
}

// Request is the decision-relevant shape of an inbound "/" request.
type Request struct {
	// Session is the verified cookie session, nil when signed out.
	Session *session.Session

	// OwnerAlias is the opaque alias from the owner query parameter,
	// empty when absent.
	OwnerAlias string

	// ShowPublic widens an organizational viewer's visibility to
	// include public meetings.
	ShowPublic bool
}

// Kind discriminates resolver outcomes.
type Kind int

const (
	// KindRedirect sends the visitor straight to a meeting URL.
	KindRedirect Kind = iota

	// KindSelection renders the meeting selection view.
	KindSelection

	// KindError renders an error page.
	KindError
)

// Outcome is what the resolver decided; rendering is the server's job.
type Outcome struct {
	Kind Kind

	// RedirectURL is set for KindRedirect.
	RedirectURL string

	// Selection fields (KindSelection).
	Meetings     []meetings.Entry
	ActiveEmail  string // signed-in viewer's email, empty when signed out
	AutoRedirect bool   // countdown auto-redirect on the viewer's own entry
	ShareAlias   string // viewer's direct-link alias, empty when signed out
	SignedIn     bool

	// Error fields (KindError).
	Status   int
	Title    string
	Message  string
	BackLink string

	// UpdatedSession is non-nil when a token rotation was observed and
	// the session cookie must be rewritten.
	UpdatedSession *session.Session
}

// Resolver implements the per-request decision logic for "/".
type Resolver struct {
	cache        *meetings.Cache
	tokens       *tokens.Store
	aliases      *alias.Index
	provisioner  MeetingProvisioner
	defaultToken string
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
}

// New creates a Resolver. defaultToken is the fallback refresh token
// used to provision a meeting for signed-out visitors of an empty
// cache; it may be empty, in which case that path renders an empty
// selection instead.
func New(cache *meetings.Cache, tokenStore *tokens.Store, aliases *alias.Index, provisioner MeetingProvisioner, defaultToken string, logger *slog.Logger, metrics *instrumentation.Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:        cache,
		tokens:       tokenStore,
		aliases:      aliases,
		provisioner:  provisioner,
		defaultToken: defaultToken,
		logger:       logger,
		metrics:      metrics,
	}
}

// Resolve runs the decision logic. Failures are returned as error
// outcomes, never as Go errors; the caller always has something to
// render.
func (r *Resolver) Resolve(ctx context.Context, req Request) Outcome {
	if req.OwnerAlias != "" {
		return r.resolveDirectLink(ctx, req.OwnerAlias)
	}
	if req.Session != nil {
		return r.resolveSignedIn(ctx, req)
	}
	return r.resolveSignedOut(ctx)
}

// resolveDirectLink handles ?owner=<alias>: resolve the alias, reuse or
// provision the owner's meeting with the owner's stored token, and
// redirect. Direct links bypass all visibility filtering.
func (r *Resolver) resolveDirectLink(ctx context.Context, ownerAlias string) Outcome {
	ownerEmail, ok, err := r.aliases.Resolve(ctx, ownerAlias)
	if err != nil {
		return r.upstreamFailure(err)
	}
	if !ok {
		r.recordAlias(ctx, instrumentation.AliasResultMiss)
		return Outcome{
			Kind:     KindError,
			Status:   http.StatusNotFound,
			Title:    "invalid link",
			Message:  "This direct link is invalid or the user hasn't signed in yet.",
			BackLink: "/home",
		}
	}
	r.recordAlias(ctx, instrumentation.AliasResultHit)

	stored, ok, err := r.tokens.Get(ctx, ownerEmail)
	if err != nil {
		return r.upstreamFailure(err)
	}
	if !ok {
		return Outcome{
			Kind:     KindError,
			Status:   http.StatusNotFound,
			Title:    "user not found",
			Message:  "This user's session has expired. They need to sign in again.",
			BackLink: "/home",
		}
	}

	existing, ok, err := r.cache.Get(ctx, ownerEmail)
	if err != nil {
		return r.upstreamFailure(err)
	}
	if ok {
		return Outcome{Kind: KindRedirect, RedirectURL: existing.URL}
	}

	res, err := r.provisioner.CreateAndStore(ctx, ownerEmail, stored.Name, stored.RefreshToken)
	if err != nil {
		r.logger.Error("failed to create meeting for direct link",
			logging.Err(err), logging.Alias(ownerAlias))
		return r.upstreamFailure(err)
	}
	return Outcome{Kind: KindRedirect, RedirectURL: res.Entry.URL}
}

// resolveSignedOut handles anonymous visitors. A completely empty cache
// provisions a meeting under the default fallback identity; otherwise
// only public meetings are shown.
func (r *Resolver) resolveSignedOut(ctx context.Context) Outcome {
	all, err := r.cache.List(ctx)
	if err != nil {
		return r.upstreamFailure(err)
	}

	if len(all) == 0 {
		if r.defaultToken == "" {
			// Without a fallback credential there is nothing to
			// provision; show the empty selection inviting sign-in.
			return Outcome{Kind: KindSelection}
		}
		res, err := r.provisioner.CreateAndStore(ctx, DefaultUserKey, "Default", r.defaultToken)
		if err != nil {
			r.logger.Error("failed to create default meeting", logging.Err(err))
			return r.upstreamFailure(err)
		}
		return Outcome{Kind: KindRedirect, RedirectURL: res.Entry.URL}
	}

	visible := filter(all, IsPublic)
	if len(visible) == 1 {
		return Outcome{Kind: KindRedirect, RedirectURL: visible[0].URL}
	}
	// Zero public meetings renders an empty selection inviting sign-in.
	return Outcome{Kind: KindSelection, Meetings: visible}
}

// resolveSignedIn computes the viewer's visibility set, lazily
// provisions the viewer's own meeting, and redirects when exactly one
// meeting is visible.
func (r *Resolver) resolveSignedIn(ctx context.Context, req Request) Outcome {
	sess := req.Session

	all, err := r.cache.List(ctx)
	if err != nil {
		return r.upstreamFailure(err)
	}

	pred := visibilityFor(sess.Email, req.ShowPublic)
	visible := filter(all, pred)

	var updated *session.Session
	if !contains(all, sess.Email) {
		res, err := r.provisioner.CreateAndStore(ctx, sess.Email, sess.Name, sess.RefreshToken)
		if err != nil {
			r.logger.Error("failed to create meeting",
				logging.Err(err), logging.UserHash(sess.Email))
			return r.upstreamFailure(err)
		}
		if res.NewRefreshToken != "" {
			updated = sess.WithRefreshToken(res.NewRefreshToken)
		}
		if pred(res.Entry) {
			visible = append(visible, res.Entry)
		}
	}

	if len(visible) == 1 {
		return Outcome{
			Kind:           KindRedirect,
			RedirectURL:    visible[0].URL,
			UpdatedSession: updated,
		}
	}

	shareAlias, err := r.aliases.GetOrCreate(ctx, sess.Email)
	if err != nil {
		return r.upstreamFailure(err)
	}
	return Outcome{
		Kind:           KindSelection,
		Meetings:       visible,
		ActiveEmail:    sess.Email,
		AutoRedirect:   true,
		ShareAlias:     shareAlias,
		SignedIn:       true,
		UpdatedSession: updated,
	}
}

// upstreamFailure converts any internal or provider error into the
// generic 500 error outcome. The message carries the underlying error
// text so operators can see provider status codes in rendered pages
// and logs.
func (r *Resolver) upstreamFailure(err error) Outcome {
	return Outcome{
		Kind:     KindError,
		Status:   http.StatusInternalServerError,
		Title:    "failed to create meeting",
		Message:  err.Error(),
		BackLink: "/login",
	}
}

func (r *Resolver) recordAlias(ctx context.Context, result string) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordAliasLookup(ctx, result)
}

// IsPublic reports whether a meeting owned by email is visible to
// everyone: free consumer domains and the default fallback identity.
func IsPublic(e meetings.Entry) bool {
	if e.Email == DefaultUserKey {
		return true
	}
	return consumerDomains[emailDomain(e.Email)]
}

// visibilityFor returns the entry predicate for a signed-in viewer.
// Consumer-domain viewers see only public meetings. Organizational
// viewers see same-domain meetings, widened to include public ones
// when showPublic is set.
func visibilityFor(viewerEmail string, showPublic bool) func(meetings.Entry) bool {
	viewerDomain := emailDomain(viewerEmail)
	if consumerDomains[viewerDomain] {
		return IsPublic
	}
	return func(e meetings.Entry) bool {
		if emailDomain(e.Email) == viewerDomain {
			return true
		}
		return showPublic && IsPublic(e)
	}
}

func emailDomain(email string) string {
	if idx := strings.LastIndex(email, "@"); idx >= 0 {
		return email[idx+1:]
	}
	return ""
}

func filter(entries []meetings.Entry, pred func(meetings.Entry) bool) []meetings.Entry {
	out := make([]meetings.Entry, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func contains(entries []meetings.Entry, email string) bool {
	for _, e := range entries {
		if e.Email == email {
			return true
		}
	}
	return false
}
