package f95zone

import (
	"regexp"
	"strings"
)

// Platform endpoints. Cookies are the only session-correlation mechanism,
// so every endpoint shares the same host.
const (
	BaseURL     = "https://f95zone.to/"
	LoginURL    = BaseURL + "login/login"
	Login2faURL = BaseURL + "login/two-step"
	SearchURL   = BaseURL + "search/search/"
)

// Session cookie names issued by the platform.
const (
	cookieUser    = "xf_user"
	cookieSession = "xf_session"
	cookieCsrf    = "xf_csrf"
)

var urlRegex = regexp.MustCompile(
	`((https|http)?://)?(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&//=]*)`,
)

var schemePrefix = regexp.MustCompile(`^(https?:)?//`)

// IsValidURL reports whether the string looks like a well-formed
// HTTP/HTTPS URL.
func IsValidURL(rawURL string) bool {
	return urlRegex.MatchString(rawURL)
}

// EnforceHTTPS rewrites an http or scheme-relative URL to https.
func EnforceHTTPS(rawURL string) (string, error) {
	if !IsValidURL(rawURL) {
		return "", newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL")
	}
	return schemePrefix.ReplaceAllString(rawURL, "https://"), nil
}

// IsPlatformURL reports whether the URL belongs to the platform's domain.
func IsPlatformURL(rawURL string) (bool, error) {
	if !IsValidURL(rawURL) {
		return false, newError(CodeMalformedURL, "'"+rawURL+"' is not a valid URL")
	}
	return strings.HasPrefix(rawURL, BaseURL), nil
}
