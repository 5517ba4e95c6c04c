package f95zone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jj-development3dx/hz-publisher/lib/result"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// LoginCode identifies the outcome of an authentication attempt.
type LoginCode int

const (
	LoginRequire2fa           LoginCode = 100
	LoginRequireCaptcha       LoginCode = 101
	LoginAuthSuccessful       LoginCode = 200
	LoginAuthSuccessful2fa    LoginCode = 201
	LoginAlreadyAuthenticated LoginCode = 202
	LoginUnknownError         LoginCode = 400
	LoginIncorrectCredentials LoginCode = 401
	LoginIncorrect2faCode     LoginCode = 402
)

// LoginResult is the uniform outcome of Authenticate and Send2faCode.
type LoginResult struct {
	Success bool
	Code    LoginCode
	Message string
}

// TwoFactorProvider is the mechanism generating the second factor.
type TwoFactorProvider string

const (
	ProviderAuto  TwoFactorProvider = "auto"
	ProviderTotp  TwoFactorProvider = "totp"
	ProviderEmail TwoFactorProvider = "email"
)

// Messages the platform answers login attempts with. The code lookup is
// an exact-match on these.
const (
	authSuccessfulMessage       = "Authentication successful"
	invalid2faCodeMessage       = "The two-step verification value could not be confirmed. Please try again"
	incorrectCredentialsMessage = "Incorrect password. Please try again."
	requireCaptchaMessage       = "You did not complete the CAPTCHA verification properly. Please try again."
	notLoggedInMessage          = "Successful request but user not logged in"
)

const (
	selLoginError       = "div.blockMessage.blockMessage--error.blockMessage--iconic"
	selSecurityError    = "div.blockMessage.blockMessage--important"
	selCurrentUserID    = "span.avatar[data-user-id]"
	selExpectedProvider = "input[name=provider]"
)

// Authenticate logs in to the platform with the credentials and the token
// fetched previously. Transport failures are downgraded to a LoginResult
// with LoginUnknownError, so the only returned error is the fail-fast on
// a missing token.
func (c *Client) Authenticate(ctx context.Context, credentials *Credentials, captchaToken string) (LoginResult, error) {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	slog.InfoContext(ctx, "authenticating", "username", credentials.Username)
	if credentials.Token() == "" {
		span.SetStatus(codes.Error, "missing token")
		return LoginResult{}, newError(CodeInvalidToken, "invalid token for auth")
	}

	loginURL := c.loginURL()

	params := map[string]string{
		"login":                credentials.Username,
		"url":                  "",
		"password":             credentials.Password,
		"password_confirm":     "",
		"additional_security":  "",
		"remember":             "1",
		"_xfRedirect":          c.BaseURL.String(),
		"website_code":         "",
		"_xfToken":             credentials.Token(),
		"g-recaptcha-response": captchaToken,
	}

	response := c.FetchPOST(ctx, loginURL, params)
	parsed := result.ApplyOnSuccess(response, c.manageLoginResponse)

	if parsed.IsFailure() {
		message := fmt.Sprintf("error %q occurred while authenticating", parsed.Error().Message)
		slog.ErrorContext(ctx, "authentication failed", "err", parsed.Error())
		span.SetStatus(codes.Error, message)
		return LoginResult{Success: false, Code: LoginUnknownError, Message: message}, nil
	}
	return parsed.Value(), nil
}

// manageLoginResponse classifies the server's answer to the login POST.
func (c *Client) manageLoginResponse(res *resty.Response) LoginResult {
	finalURL := ""
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	return classifyLoginResponse(finalURL, c.login2faURL(), res.Body())
}

// classifyLoginResponse interprets the login POST response: a redirect to
// the two-step endpoint means 2FA is required; otherwise error message
// blocks and the current-user marker decide the outcome.
func classifyLoginResponse(finalURL, twoStepURL string, body []byte) LoginResult {
	if strings.HasPrefix(finalURL, twoStepURL) {
		return LoginResult{
			Success: false,
			Code:    LoginRequire2fa,
			Message: "Two-factor authentication is needed to continue",
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return LoginResult{
			Success: false,
			Code:    LoginUnknownError,
			Message: fmt.Sprintf("failed to parse the login response: %s", err),
		}
	}

	genericError := strings.ReplaceAll(doc.Find("body").Find(selLoginError).Text(), "\n", "")
	securityError := strings.ReplaceAll(doc.Find("body").Find(selSecurityError).Text(), "\n\t", "")

	errorMessage := genericError
	if errorMessage == "" {
		errorMessage = securityError
	}

	hasUserID := doc.Find("body").Find(selCurrentUserID).Length() != 0
	if !hasUserID && errorMessage == "" {
		// heuristic fallback, the server gives no positive confirmation
		errorMessage = notLoggedInMessage
	}

	success := strings.TrimSpace(errorMessage) == "" && hasUserID
	message := errorMessage
	if success {
		message = authSuccessfulMessage
	}
	return LoginResult{
		Success: success,
		Code:    messageToCode(message),
		Message: strings.TrimSpace(message),
	}
}

// messageToCode maps the platform's response message to a result code by
// exact lookup.
func messageToCode(message string) LoginCode {
	switch message {
	case authSuccessfulMessage:
		return LoginAuthSuccessful
	case incorrectCredentialsMessage:
		return LoginIncorrectCredentials
	case invalid2faCodeMessage:
		return LoginIncorrect2faCode
	case requireCaptchaMessage:
		return LoginRequireCaptcha
	}
	return LoginUnknownError
}

type twoStepResponse struct {
	Status string   `json:"status"`
	Errors []string `json:"errors"`
	HTML   *struct {
		Content string `json:"content"`
	} `json:"html"`
}

// Send2faCode submits a two-factor code. When the server indicates the
// chosen provider is wrong, it retries once with the server-suggested
// provider; callers must not loop externally.
func (c *Client) Send2faCode(ctx context.Context, code int, token string, provider TwoFactorProvider, trustedDevice bool) result.Result[*Error, LoginResult] {
	ctx, span := tracer.Start(ctx, "client:Send2faCode")
	defer span.End()

	trust := "0"
	if trustedDevice {
		trust = "1"
	}

	for attempt := 0; ; attempt++ {
		params := map[string]string{
			"_xfRedirect":     c.BaseURL.String(),
			"_xfRequestUri":   "/login/two-step?_xfRedirect=https%3A%2F%2Ff95zone.to%2F&remember=1",
			"_xfResponseType": "json",
			"_xfToken":        token,
			"_xfWithData":     "1",
			"code":            strconv.Itoa(code),
			"confirm":         "1",
			"provider":        string(provider),
			"remember":        "1",
			"trust":           trust,
		}

		response := c.FetchPOST(ctx, c.login2faURL(), params)
		if response.IsFailure() {
			span.SetStatus(codes.Error, "two-step request failed")
			return result.Err[*Error, LoginResult](response.Error())
		}

		var payload twoStepResponse
		err := json.Unmarshal(response.Value().Body(), &payload)
		if err != nil {
			return result.Err[*Error, LoginResult](wrapError(
				CodeLoginStateUnknown, "two-step response cannot be parsed", err,
			))
		}

		// the html property exists only when the provider is wrong
		if payload.HTML != nil {
			expected := expectedProvider(payload.HTML.Content)
			if attempt == 0 && expected != "" {
				slog.InfoContext(ctx, "retrying with server-suggested provider", "provider", expected)
				provider = expected
				continue
			}
			return result.Ok[*Error](LoginResult{
				Success: false,
				Code:    LoginUnknownError,
				Message: "the two-step provider was rejected by the platform",
			})
		}

		success := payload.Status == "ok"
		message := strings.Join(payload.Errors, ",")
		if success {
			message = authSuccessfulMessage
		}
		return result.Ok[*Error](LoginResult{
			Success: success,
			Code:    messageToCode(message),
			Message: message,
		})
	}
}

func expectedProvider(content string) TwoFactorProvider {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return TwoFactorProvider(doc.Find(selExpectedProvider).AttrOr("value", ""))
}

// UpdateSession re-synchronizes the anti-forgery token with cookie state.
// Without it, a token desynchronized from the csrf cookie makes any POST
// fail as a security error. Requires an identity cookie from a previous
// authentication.
func (c *Client) UpdateSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:UpdateSession")
	defer span.End()

	userCookie := c.Session.Jar().Get(c.BaseURL.Hostname(), cookieUser)
	if userCookie == nil {
		span.SetStatus(codes.Error, "no previous session")
		return newError(CodeNoPreviousSession, "a previous session is needed to update the current session")
	}

	// mint fresh session cookies; the identity cookie must ride along
	slog.InfoContext(ctx, "updating session cookies")
	_, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Cookie", fmt.Sprintf("%s=%s", userCookie.Name, userCookie.Value)).
		Get(c.BaseURL.String())
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch session cookies")
		return wrapError(CodeNetworkFailure, "failed to fetch fresh session cookies", err)
	}

	// the token value depends on the current csrf cookie
	slog.InfoContext(ctx, "updating anti-forgery token")
	token, err := c.FetchToken(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch token")
		return err
	}
	c.Session.UpdateToken(token)
	return nil
}
