package meet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	meet "google.golang.org/api/meet/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/meetgate/internal/instrumentation"
)

// Client creates Google Meet spaces on behalf of users.
//
// Every user brings their own short-lived access token, so the Meet
// service is constructed per call rather than held on the client.
type Client struct {
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a new Meet client.
func NewClient(logger *slog.Logger, metrics *instrumentation.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger:  logger,
		metrics: metrics,
	}
}

// CreateSpace creates a new Meet space using the given OAuth access token
// and returns the meeting URI.
func (c *Client) CreateSpace(ctx context.Context, accessToken string) (string, error) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceMeet, instrumentation.OperationCreateSpace)
	defer span.End()

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := meet.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.record(ctx, instrumentation.StatusError, start)
		return "", fmt.Errorf("failed to create Meet service: %w", err)
	}

	space, err := svc.Spaces.Create(&meet.Space{}).Context(ctx).Do()
	if err != nil {
		err = describeAPIError(err)
		instrumentation.SetSpanError(span, err)
		c.record(ctx, instrumentation.StatusError, start)
		return "", err
	}

	if space.MeetingUri == "" {
		err := errors.New("meet api returned a space without a meeting uri")
		instrumentation.SetSpanError(span, err)
		c.record(ctx, instrumentation.StatusError, start)
		return "", err
	}

	instrumentation.SetSpanSuccess(span)
	c.record(ctx, instrumentation.StatusSuccess, start)
	c.logger.Debug("created meet space", "space", space.Name)
	return space.MeetingUri, nil
}

func (c *Client) record(ctx context.Context, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceMeet, instrumentation.OperationCreateSpace, status, time.Since(start))
}

// describeAPIError surfaces the HTTP status and message from a googleapi
// error so callers see more than "googleapi: Error 403".
func describeAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("meet api error (%d): %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("failed to create Meet space: %w", err)
}
