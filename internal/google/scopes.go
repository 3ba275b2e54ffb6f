package google

// OAuthScopes are the Google OAuth scopes meetgate requests.
//
// meetings.space.created grants creation of Meet spaces on the user's
// behalf; the OpenID Connect scopes are required to receive an id_token
// carrying the user's email and display name.
var OAuthScopes = []string{
	"https://www.googleapis.com/auth/meetings.space.created",
	"openid",
	"email",
	"profile",
}
