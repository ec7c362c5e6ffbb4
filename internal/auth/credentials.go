package auth

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoAuthentication       = errors.New("no authentication provided")
	ErrMalformedAuthorization = errors.New("invalid authorization provided")
	ErrUnsupportedScheme      = errors.New("invalid authorization scope")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrInvalidToken           = errors.New("invalid access token")
)

// Reason maps an authentication error to its fixed user-facing message.
// Unknown errors collapse to the malformed-authorization message so raw
// internals never reach a client.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoAuthentication):
		return "No Authentication provided!"
	case errors.Is(err, ErrUnsupportedScheme):
		return "Invalid Authorization scope provided!"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid Username or Password!"
	case errors.Is(err, ErrInvalidToken):
		return "Invalid Access Token!"
	default:
		return "Invalid Authorization provided!"
	}
}

// authorizationPattern accepts "SCHEME CREDENTIAL" where the credential is
// limited to the base64 alphabet.
var authorizationPattern = regexp.MustCompile(`^(\w+)\s+([A-Za-z0-9=+/]+)$`)

// Credential is the parsed Authorization header: either decoded Basic
// credentials or an opaque bearer token. Parsing happens exactly once;
// the resolver switches on the concrete type.
type Credential interface {
	credential()
}

// BasicCredential carries the username and password the transport decoded
// from an HTTP Basic header.
type BasicCredential struct {
	User string
	Pass string
}

// BearerCredential carries the raw opaque token string.
type BearerCredential struct {
	Token string
}

func (BasicCredential) credential()  {}
func (BearerCredential) credential() {}

// ParseAuthorization classifies a raw Authorization header value. For the
// basic scheme the already-decoded username and password are supplied by
// the caller (net/http decodes Basic via Request.BasicAuth).
func ParseAuthorization(header, basicUser, basicPass string) (Credential, error) {
	if header == "" {
		return nil, ErrNoAuthentication
	}

	m := authorizationPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, ErrMalformedAuthorization
	}

	switch strings.ToLower(m[1]) {
	case "basic":
		return BasicCredential{User: basicUser, Pass: basicPass}, nil
	case "bearer":
		return BearerCredential{Token: m[2]}, nil
	default:
		return nil, ErrUnsupportedScheme
	}
}
