package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func writeCredentials(t *testing.T, dir, redirect string) {
	t.Helper()
	creds := `{"installed":{
		"client_id":"id.apps.googleusercontent.com",
		"client_secret":"shh",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["` + redirect + `"]
	}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClientSecretsFile), []byte(creds), 0600))
}

func TestGetConfigForcesLocalhostPort(t *testing.T) {
	dir := t.TempDir()
	writeCredentials(t, dir, "http://localhost")

	cfg, err := GetConfig(dir, CalendarScopes)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:"+LocalhostAuthPort, cfg.RedirectURL)
	assert.Equal(t, CalendarScopes, cfg.Scopes)
}

func TestGetConfigReplacesOutOfBand(t *testing.T) {
	dir := t.TempDir()
	writeCredentials(t, dir, "urn:ietf:wg:oauth:2.0:oob")

	cfg, err := GetConfig(dir, CalendarScopes)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:"+LocalhostAuthPort+"/oauth2callback", cfg.RedirectURL)
}

func TestGetConfigMissingFile(t *testing.T) {
	_, err := GetConfig(t.TempDir(), CalendarScopes)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", TokenFile)
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, saveToken(path, tok))

	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))

	require.NoError(t, ResetToken(filepath.Dir(path)))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ResetToken(filepath.Dir(path)))
}
