package f95zone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidURL(t *testing.T) {
	require.True(t, IsValidURL("https://f95zone.to/login/login"))
	require.True(t, IsValidURL("http://example.com"))
	require.True(t, IsValidURL("//example.com/path"))
	require.False(t, IsValidURL("not a url"))
	require.False(t, IsValidURL(""))
}

func TestEnforceHTTPS(t *testing.T) {
	secure, err := EnforceHTTPS("http://f95zone.to/threads/1")
	require.NoError(t, err)
	require.Equal(t, "https://f95zone.to/threads/1", secure)

	secure, err = EnforceHTTPS("//f95zone.to/threads/1")
	require.NoError(t, err)
	require.Equal(t, "https://f95zone.to/threads/1", secure)

	secure, err = EnforceHTTPS("https://f95zone.to/threads/1")
	require.NoError(t, err)
	require.Equal(t, "https://f95zone.to/threads/1", secure)

	_, err = EnforceHTTPS("definitely not a url")
	require.Error(t, err)
	require.True(t, HasCode(err, CodeMalformedURL))
}

func TestIsPlatformURL(t *testing.T) {
	ok, err := IsPlatformURL("https://f95zone.to/threads/1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = IsPlatformURL("https://example.com/threads/1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = IsPlatformURL("not a url")
	require.True(t, HasCode(err, CodeMalformedURL))
}
