// Package gmail fetches recent messages from a Gmail mailbox.
package gmail

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gmail_api "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"mailtriage/internal/model"
	"mailtriage/pkg/apperr"
	"mailtriage/pkg/config"
	"mailtriage/pkg/metrics"
)

const (
	// See https://developers.google.com/gmail/api/v1/reference/quota
	quotaUnitsMessagesGet     = 5
	quotaUnitsPerMessagesList = 1

	quotaUnitsPerSecond = 250
	rateLimitPerSecond  = quotaUnitsPerSecond * 0.8
	rateLimitBurst      = quotaUnitsPerSecond

	defaultUser    = "me"
	defaultTimeout = 30 * time.Second
)

var (
	ErrMessageNotFound = errors.New("gmail message not found")
)

// Client provides read access to a Gmail mailbox.
type Client struct {
	service *gmail_api.Service
	limiter *rate.Limiter
	user    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient builds a Client from the OAuth client secret and a token saved by
// Authorize.
func NewClient(ctx context.Context, cfg config.GmailConfig, logger *zap.Logger) (*Client, error) {
	oauthCfg, err := OAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, errors.Wrap(err, "no usable gmail token, run with -gmail-auth first")
	}

	src := &persistingTokenSource{
		src:  oauthCfg.TokenSource(context.Background(), tok),
		path: cfg.TokenFile,
		last: tok.AccessToken,
		save: saveToken,
	}
	httpClient := oauth2.NewClient(context.Background(), oauth2.ReuseTokenSource(tok, src))

	srv, err := gmail_api.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "unable to create gmail service")
	}
	return New(srv, cfg, logger), nil
}

// New wraps an existing Gmail service.
func New(srv *gmail_api.Service, cfg config.GmailConfig, logger *zap.Logger) *Client {
	user := cfg.User
	if user == "" {
		user = defaultUser
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		service: srv,
		limiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
		user:    user,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchRecent returns up to maxResults of the most recent messages.
// Messages deleted between listing and fetching are skipped.
func (c *Client) FetchRecent(ctx context.Context, maxResults int) ([]model.EmailRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	records, err := c.fetchRecent(ctx, maxResults)
	if err != nil {
		metrics.RecordMailFetchDuration("error", time.Since(start))
		return nil, apperr.Dependency("gmail.FetchRecent", err)
	}
	metrics.RecordMailFetchDuration("success", time.Since(start))
	return records, nil
}

func (c *Client) fetchRecent(ctx context.Context, maxResults int) ([]model.EmailRecord, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPerMessagesList); err != nil {
		return nil, err
	}
	list, err := c.service.Users.Messages.List(c.user).MaxResults(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list messages")
	}
	c.logger.Info("listed Gmail messages", zap.Int("count", len(list.Messages)))

	records := make([]model.EmailRecord, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := c.getMessage(ctx, m.Id)
		if errors.Cause(err) == ErrMessageNotFound {
			c.logger.Warn("message disappeared before it could be fetched", zap.String("email_id", m.Id))
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "getting message %v from gmail", m.Id)
		}
		records = append(records, parseMessage(msg))
	}
	return records, nil
}

func (c *Client) getMessage(ctx context.Context, id string) (*gmail_api.Message, error) {
	call := c.service.Users.Messages.Get(c.user, id).Format("full").Context(ctx)
	for {
		if err := c.limiter.WaitN(ctx, quotaUnitsMessagesGet); err != nil {
			return nil, err
		}
		msg, err := call.Do()
		if err == nil {
			return msg, nil
		}

		if cause, ok := errors.Cause(err).(*googleapi.Error); ok {
			switch cause.Code {
			case http.StatusTooManyRequests:
				continue // quota; the limiter spaces out the retry
			case http.StatusNotFound:
				return nil, ErrMessageNotFound
			}
		}
		return nil, err
	}
}
