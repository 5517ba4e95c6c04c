package f95zone

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPageHTML = `<html><body>
<form><input type="hidden" name="_xfToken" value="csrf-token-1"></form>
</body></html>`

const loggedInHTML = `<html><body>
<span class="avatar" data-user-id="1234"></span>
</body></html>`

const incorrectCredentialsHTML = `<html><body>
<div class="blockMessage blockMessage--error blockMessage--iconic">Incorrect password. Please try again.</div>
</body></html>`

func readyCredentials(token string) *Credentials {
	credentials := NewCredentials(testUsername, testPassword)
	credentials.token = token
	return credentials
}

func TestClassifyLoginResponse(t *testing.T) {
	twoStepURL := "https://f95zone.to/login/two-step"

	res := classifyLoginResponse("https://f95zone.to/login/two-step?remember=1", twoStepURL, nil)
	require.False(t, res.Success)
	require.Equal(t, LoginRequire2fa, res.Code)

	res = classifyLoginResponse("https://f95zone.to/", twoStepURL, []byte(loggedInHTML))
	require.True(t, res.Success)
	require.Equal(t, LoginAuthSuccessful, res.Code)
	require.Equal(t, "Authentication successful", res.Message)

	res = classifyLoginResponse("https://f95zone.to/login/login", twoStepURL, []byte(incorrectCredentialsHTML))
	require.False(t, res.Success)
	require.Equal(t, LoginIncorrectCredentials, res.Code)
	require.Equal(t, "Incorrect password. Please try again.", res.Message)

	// no user marker and no error block means the server answered without
	// actually logging us in
	res = classifyLoginResponse("https://f95zone.to/", twoStepURL, []byte("<html><body></body></html>"))
	require.False(t, res.Success)
	require.Equal(t, LoginUnknownError, res.Code)
	require.Equal(t, "Successful request but user not logged in", res.Message)
}

func TestAuthenticateRequiresToken(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()
	client := newTestClient(t, server)

	_, err := client.Authenticate(context.Background(), NewCredentials(testUsername, testPassword), "")
	require.Error(t, err)
	require.True(t, HasCode(err, CodeInvalidToken))
	// the missing token must be caught before anything goes on the wire
	require.Equal(t, int64(0), requests.Load())
}

func TestAuthenticateSuccess(t *testing.T) {
	var form atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/login/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form.Store(r.PostForm)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(loggedInHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res, err := client.Authenticate(context.Background(), readyCredentials("csrf-token-1"), "")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, LoginAuthSuccessful, res.Code)

	sent := form.Load().(url.Values)
	require.Equal(t, testUsername, sent["login"][0])
	require.Equal(t, testPassword, sent["password"][0])
	require.Equal(t, "csrf-token-1", sent["_xfToken"][0])
	require.Equal(t, "1", sent["remember"][0])
}

func TestAuthenticateIncorrectCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(incorrectCredentialsHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res, err := client.Authenticate(context.Background(), readyCredentials("csrf-token-1"), "")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, LoginIncorrectCredentials, res.Code)
}

func TestAuthenticateRequire2fa(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/two-step?remember=1", http.StatusSeeOther)
	})
	mux.HandleFunc("/login/two-step", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>enter your code</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res, err := client.Authenticate(context.Background(), readyCredentials("csrf-token-1"), "")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, LoginRequire2fa, res.Code)
}

func TestAuthenticateTransportFailureIsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	res, err := client.Authenticate(context.Background(), readyCredentials("csrf-token-1"), "")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, LoginUnknownError, res.Code)
}

func TestSend2faCodeSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/two-step", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res := client.Send2faCode(context.Background(), 123456, "csrf-token-1", ProviderTotp, false)
	require.True(t, res.IsSuccess())
	require.True(t, res.Value().Success)
	require.Equal(t, LoginAuthSuccessful, res.Value().Code)
}

func TestSend2faCodeIncorrect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/two-step", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"error","errors":["The two-step verification value could not be confirmed. Please try again"]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res := client.Send2faCode(context.Background(), 1, "csrf-token-1", ProviderTotp, false)
	require.True(t, res.IsSuccess())
	require.False(t, res.Value().Success)
	require.Equal(t, LoginIncorrect2faCode, res.Value().Code)
}

func TestSend2faCodeRetriesSuggestedProviderOnce(t *testing.T) {
	var providers []string
	mux := http.NewServeMux()
	mux.HandleFunc("/login/two-step", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		providers = append(providers, r.PostForm.Get("provider"))
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("provider") != "email" {
			fmt.Fprint(w, `{"html":{"content":"<form><input type=\"hidden\" name=\"provider\" value=\"email\"></form>"}}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res := client.Send2faCode(context.Background(), 123456, "csrf-token-1", ProviderTotp, false)
	require.True(t, res.IsSuccess())
	require.True(t, res.Value().Success)
	require.Equal(t, []string{"totp", "email"}, providers)
}

func TestSend2faCodeGivesUpAfterSecondRejection(t *testing.T) {
	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/login/two-step", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"html":{"content":"<form><input type=\"hidden\" name=\"provider\" value=\"email\"></form>"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	res := client.Send2faCode(context.Background(), 123456, "csrf-token-1", ProviderTotp, false)
	require.True(t, res.IsSuccess())
	require.False(t, res.Value().Success)
	require.Equal(t, LoginUnknownError, res.Value().Code)
	// one retry with the suggested provider, then stop
	require.Equal(t, int64(2), requests.Load())
}

func TestUpdateSessionRequiresPreviousSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	client := newTestClient(t, server)

	err := client.UpdateSession(context.Background())
	require.Error(t, err)
	require.True(t, HasCode(err, CodeNoPreviousSession))
}

func TestUpdateSessionRefreshesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// the identity cookie must ride along on the refresh request
		c, err := r.Cookie("xf_user")
		require.NoError(t, err)
		require.Equal(t, "identity", c.Value)
		http.SetCookie(w, &http.Cookie{Name: "xf_csrf", Value: "minted"})
	})
	mux.HandleFunc("/login/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(loginPageHTML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(t, server)

	client.Session.Jar().SetCookies(client.BaseURL, []*http.Cookie{
		{Name: "xf_user", Value: "identity"},
	})

	require.NoError(t, client.UpdateSession(context.Background()))
	require.Equal(t, "csrf-token-1", client.Session.Token())
	require.NotNil(t, client.Session.Jar().Get(client.BaseURL.Hostname(), "xf_csrf"))
}
