package sheetsync

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
)

// SpreadsheetsReadOnlyScope is the only scope the sync requests.
const SpreadsheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

var ErrNotConfigured = errors.New("google sheets sync is not configured")

// Credentials identify the service account and the sheet to read.
type Credentials struct {
	Email      string
	PrivateKey string
	SheetID    string
	Range      string
}

// CredentialsFromConfig reads the google_* attributes. Escaped newlines in
// the private key, as stored in most secret managers, are expanded.
func CredentialsFromConfig(cfg *config.Config) Credentials {
	return Credentials{
		Email:      strings.TrimSpace(cfg.GoogleServiceAccountEmail),
		PrivateKey: normalizeKey(cfg.GooglePrivateKey),
		SheetID:    strings.TrimSpace(cfg.GoogleSheetID),
		Range:      cfg.GoogleSheetRange,
	}
}

func normalizeKey(key string) string {
	key = strings.Trim(strings.TrimSpace(key), `"`)
	return strings.TrimSpace(strings.ReplaceAll(key, `\n`, "\n"))
}

// Configured reports whether all values needed to read the sheet are set.
func (c Credentials) Configured() bool {
	return c.Email != "" && c.PrivateKey != "" && c.SheetID != ""
}

func (c Credentials) jwtConfig() *jwt.Config {
	return &jwt.Config{
		Email:      c.Email,
		PrivateKey: []byte(c.PrivateKey),
		Scopes:     []string{SpreadsheetsReadOnlyScope},
		TokenURL:   google.JWTTokenURL,
	}
}

// TokenSource returns a self-refreshing service account token source.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if err := c.parseKey(); err != nil {
		return nil, err
	}
	return c.jwtConfig().TokenSource(ctx), nil
}

// Client returns an HTTP client that authorizes requests with the service
// account token.
func (c Credentials) Client(ctx context.Context) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (c Credentials) parseKey() error {
	block, _ := pem.Decode([]byte(c.PrivateKey))
	if block == nil {
		return errors.New("private key is not PEM encoded")
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return nil
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		return errors.New("private key is neither PKCS#8 nor PKCS#1")
	}
	return nil
}

// Diagnosis describes the sync configuration without revealing secrets.
type Diagnosis struct {
	CredentialsConfigured bool   `json:"credentialsConfigured"`
	PrivateKeyParsed      bool   `json:"privateKeyParsed"`
	PrivateKeyError       string `json:"privateKeyError,omitempty"`
	ServiceAccountEmail   string `json:"serviceAccountEmail,omitempty"`
	SheetConfigured       bool   `json:"sheetConfigured"`
	SheetReachable        *bool  `json:"sheetReachable,omitempty"`
	SheetError            string `json:"sheetError,omitempty"`
	HeaderColumns         int    `json:"headerColumns,omitempty"`
}

// Diagnose checks the credentials offline.
func (c Credentials) Diagnose() Diagnosis {
	d := Diagnosis{
		CredentialsConfigured: c.Email != "" && c.PrivateKey != "",
		ServiceAccountEmail:   c.Email,
		SheetConfigured:       c.SheetID != "",
	}
	if c.PrivateKey != "" {
		if err := c.parseKey(); err != nil {
			d.PrivateKeyError = err.Error()
		} else {
			d.PrivateKeyParsed = true
		}
	}
	return d
}
