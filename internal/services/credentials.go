package services

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/josecyberpro/site/internal/config"
)

// AdminUsername is the only account accepted by the admin API.
const AdminUsername = "admin"

// CredentialVerifier decides whether a username/password pair grants admin access.
type CredentialVerifier interface {
	Verify(username, password string) bool
}

// StaticSecretVerifier compares against a single plaintext secret.
type StaticSecretVerifier struct {
	Username string
	Secret   string
}

func (v StaticSecretVerifier) Verify(username, password string) bool {
	if v.Secret == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.Secret)) == 1
	return userOK && passOK
}

// BcryptVerifier compares against a bcrypt hash, so the secret never has to be
// stored in plaintext in the environment.
type BcryptVerifier struct {
	Username string
	Hash     []byte
}

func (v BcryptVerifier) Verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.Hash, []byte(password)) == nil
}

// NewCredentialVerifier picks the verifier for cfg. A bcrypt hash wins over a
// plaintext password.
func NewCredentialVerifier(cfg config.Config) CredentialVerifier {
	if cfg.AdminPasswordHash != "" {
		return BcryptVerifier{Username: AdminUsername, Hash: []byte(cfg.AdminPasswordHash)}
	}
	return StaticSecretVerifier{Username: AdminUsername, Secret: cfg.AdminPassword}
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ParseBasicAuth extracts the credentials from an Authorization header value.
// The scheme must be exactly "Basic" and the payload must decode to user:pass;
// only the first colon separates the two, so passwords may contain colons.
func ParseBasicAuth(header string) (username, password string, ok bool) {
	scheme, payload, found := strings.Cut(header, " ")
	if !found || scheme != "Basic" {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", "", false
	}
	username, password, found = strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return username, password, true
}

// Authorize runs the full guard check on a raw Authorization header.
func Authorize(v CredentialVerifier, header string) bool {
	if v == nil || header == "" {
		return false
	}
	username, password, ok := ParseBasicAuth(header)
	if !ok {
		return false
	}
	return v.Verify(username, password)
}
