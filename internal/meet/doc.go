// Package meet provides a client for the Google Meet API v2.
//
// This package creates Meet spaces on behalf of authenticated users. Unlike
// a long-lived API client, the underlying service is constructed per call
// because every request carries a different user's short-lived access token.
//
// Authentication:
// The client uses OAuth2 with the meetings.space.created scope. Access tokens
// are minted from stored refresh tokens right before each call.
//
// Example usage:
//
//	client := meet.NewClient(logger, metrics)
//	url, err := client.CreateSpace(ctx, accessToken)
//	if err != nil {
//	    return err
//	}
//	// url is the joinable meeting link, e.g. https://meet.google.com/abc-defg-hij
package meet
