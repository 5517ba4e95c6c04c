package f95zone

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jj-development3dx/hz-publisher/lib/result"
	"github.com/jj-development3dx/hz-publisher/lib/restyutil"
	"github.com/jj-development3dx/hz-publisher/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"
)

// MaxConcurrentRequests caps simultaneous in-flight requests to avoid
// triggering the platform's anti-abuse defenses.
const MaxConcurrentRequests = 15

// Client performs rate-limited HTTP requests against the platform on
// behalf of a Session. All fallible network operations return a Result
// instead of an error so callers get a uniform shape.
type Client struct {
	BaseURL *url.URL
	Http    *resty.Client
	Session *Session

	limiter *semaphore.Weighted
}

type ClientOptions struct {
	// defaults to the platform base URL
	BaseURL string
	Session *Session
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = BaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	if opts.Session == nil {
		return nil, newError(CodeStorageFailure, "a session is required to construct a client")
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetCookieJar(opts.Session.Jar())
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/f95zone/http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	c := &Client{
		BaseURL: baseURL,
		Http:    client,
		Session: opts.Session,
		limiter: semaphore.NewWeighted(MaxConcurrentRequests),
	}
	return c, nil
}

// endpoint resolves a platform path against the client's base URL, which
// keeps every operation pointed at the same host the cookie jar serves.
func (c *Client) endpoint(path string) string {
	u, err := c.BaseURL.Parse(path)
	if err != nil {
		return path
	}
	return u.String()
}

func (c *Client) loginURL() string    { return c.endpoint("login/login") }
func (c *Client) login2faURL() string { return c.endpoint("login/two-step") }
func (c *Client) searchURL() string   { return c.endpoint("search/search/") }

// acquire blocks until a request slot frees up. The returned release must
// run on every exit path.
func (c *Client) acquire(ctx context.Context) (release func(), err *Error) {
	if err := c.limiter.Acquire(ctx, 1); err != nil {
		return nil, wrapError(CodeNetworkFailure, "request cancelled while waiting for a slot", err)
	}
	return func() { c.limiter.Release(1) }, nil
}

// FetchGET performs a GET request carrying the session's cookie jar.
func (c *Client) FetchGET(ctx context.Context, rawURL string) result.Result[*Error, *resty.Response] {
	if !IsValidURL(rawURL) {
		return result.Err[*Error, *resty.Response](newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL"))
	}

	release, aerr := c.acquire(ctx)
	if aerr != nil {
		return result.Err[*Error, *resty.Response](aerr)
	}
	defer release()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		message := fmt.Sprintf("(GET) error %q occurred while trying to fetch %s", err.Error(), rawURL)
		slog.ErrorContext(ctx, "request failed", "method", "GET", "url", rawURL, "err", err)
		return result.Err[*Error, *resty.Response](wrapError(CodeNetworkFailure, message, err))
	}
	return result.Ok[*Error](res)
}

// FetchHEAD performs a HEAD request carrying the session's cookie jar.
func (c *Client) FetchHEAD(ctx context.Context, rawURL string) result.Result[*Error, *resty.Response] {
	if !IsValidURL(rawURL) {
		return result.Err[*Error, *resty.Response](newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL"))
	}

	release, aerr := c.acquire(ctx)
	if aerr != nil {
		return result.Err[*Error, *resty.Response](aerr)
	}
	defer release()

	res, err := c.Http.R().
		SetContext(ctx).
		Head(rawURL)
	if err != nil {
		message := fmt.Sprintf("(HEAD) error %q occurred while trying to fetch %s", err.Error(), rawURL)
		slog.ErrorContext(ctx, "request failed", "method", "HEAD", "url", rawURL, "err", err)
		return result.Err[*Error, *resty.Response](wrapError(CodeNetworkFailure, message, err))
	}
	return result.Ok[*Error](res)
}

// FetchPOST performs a POST request with URL-encoded form parameters.
func (c *Client) FetchPOST(ctx context.Context, rawURL string, form map[string]string) result.Result[*Error, *resty.Response] {
	if !IsValidURL(rawURL) {
		return result.Err[*Error, *resty.Response](newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL"))
	}

	release, aerr := c.acquire(ctx)
	if aerr != nil {
		return result.Err[*Error, *resty.Response](aerr)
	}
	defer release()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(rawURL)
	if err != nil {
		message := fmt.Sprintf("(POST) error %q occurred while trying to fetch %s", err.Error(), rawURL)
		slog.ErrorContext(ctx, "request failed", "method", "POST", "url", rawURL, "err", err)
		return result.Err[*Error, *resty.Response](wrapError(CodeNetworkFailure, message, err))
	}
	return result.Ok[*Error](res)
}

// FetchHTML fetches a page and enforces that the response carries an HTML
// content type.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) result.Result[*Error, string] {
	secureURL, err := EnforceHTTPS(rawURL)
	if err != nil {
		return result.Err[*Error, string](newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL"))
	}

	res := c.FetchGET(ctx, secureURL)
	if res.IsFailure() {
		return result.Err[*Error, string](res.Error())
	}

	contentType := res.Value().Header().Get("content-type")
	if !strings.Contains(contentType, "text/html") {
		return result.Err[*Error, string](newError(
			CodeUnexpectedContentType,
			fmt.Sprintf("expected HTML but received %q", contentType),
		))
	}
	return result.Ok[*Error](string(res.Value().Body()))
}

// URLExists probes a URL with a HEAD request. With checkRedirect set, a
// redirect counts as a violation and yields false.
func (c *Client) URLExists(ctx context.Context, rawURL string, checkRedirect bool) (bool, error) {
	if !IsValidURL(rawURL) {
		return false, nil
	}

	res := c.FetchHEAD(ctx, rawURL)
	if res.IsFailure() {
		return false, res.Error()
	}
	if res.Value().StatusCode() >= 400 {
		return false, nil
	}

	if checkRedirect {
		final := res.Value().RawResponse.Request.URL.String()
		return final == rawURL, nil
	}
	return true, nil
}

// GetURLRedirect returns the URL a request ends up at after redirects.
func (c *Client) GetURLRedirect(ctx context.Context, rawURL string) (string, error) {
	if !IsValidURL(rawURL) {
		return "", newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL")
	}

	res := c.FetchHEAD(ctx, rawURL)
	if res.IsFailure() {
		return "", res.Error()
	}
	return res.Value().RawResponse.Request.URL.String(), nil
}
