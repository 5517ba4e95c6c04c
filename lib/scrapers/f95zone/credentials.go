package f95zone

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"
)

const selRequestToken = "input[name=_xfToken]"

// Credentials holds the username/password pair used to access the
// platform plus the anti-forgery token fetched lazily from the login
// page. The token must be fetched once before the credentials enter the
// login flow.
type Credentials struct {
	Username string
	Password string

	token string
}

func NewCredentials(username, password string) *Credentials {
	return &Credentials{Username: username, Password: password}
}

// Token returns the cached anti-forgery token, empty until fetched.
func (c *Credentials) Token() string {
	return c.token
}

// FetchToken fetches and caches the token used on state-changing POSTs.
// Repeated calls after a success are no-ops.
func (c *Credentials) FetchToken(ctx context.Context, client *Client) error {
	if c.token != "" {
		return nil
	}
	token, err := client.FetchToken(ctx)
	if err != nil {
		return err
	}
	c.token = token
	return nil
}

// FetchToken retrieves the anti-forgery token from the login page.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchToken")
	defer span.End()

	res := c.FetchGET(ctx, c.loginURL())
	if res.IsFailure() {
		return "", res.Error()
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Value().Body()))
	if err != nil {
		return "", wrapError(CodeInvalidToken, "failed to parse the login page", err)
	}
	return doc.Find("body").Find(selRequestToken).AttrOr("value", ""), nil
}
