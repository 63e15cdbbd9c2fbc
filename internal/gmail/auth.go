package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail_api "google.golang.org/api/gmail/v1"
)

// ReadonlyScope is the only scope the service asks for.
const ReadonlyScope = gmail_api.GmailReadonlyScope

// OAuthConfig reads the OAuth client secret downloaded from the Google
// Cloud console.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read client secret file")
	}
	cfg, err := google.ConfigFromJSON(b, ReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse client secret file")
	}
	return cfg, nil
}

// Authorize runs the interactive console flow: it prints the consent URL to
// out, reads the authorization code from in and stores the token in tokenFile.
func Authorize(ctx context.Context, cfg *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) error {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return errors.Wrap(err, "unable to read authorization code")
	}
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return errors.Wrap(err, "unable to exchange authorization code")
	}
	return saveToken(tokenFile, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "decoding token file %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "unable to save oauth token")
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// persistingTokenSource writes refreshed tokens back to disk so a restart
// does not need a fresh consent.
type persistingTokenSource struct {
	src  oauth2.TokenSource
	path string
	last string
	save func(string, *oauth2.Token) error
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// a failed write only costs a re-consent after restart
		_ = s.save(s.path, tok)
	}
	return tok, nil
}
