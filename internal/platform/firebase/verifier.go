package firebase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	issuerPrefix   = "https://securetoken.google.com/"
)

// Identity is the verified subject of a Firebase ID token.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier checks Firebase ID tokens against Google's securetoken keys:
// RS256, issuer https://securetoken.google.com/<project>, audience <project>.
type Verifier struct {
	projectID string
	jwks      *jwksCache
	leeway    time.Duration
	now       func() time.Time
}

func NewVerifier(httpClient *http.Client, projectID, jwksURL string) (*Verifier, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if strings.TrimSpace(jwksURL) == "" {
		jwksURL = DefaultJWKSURL
	}
	return &Verifier{
		projectID: projectID,
		jwks:      newJWKSCache(httpClient, jwksURL),
		leeway:    30 * time.Second,
		now:       time.Now,
	}, nil
}

func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("id token is empty")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	claims := &idTokenClaims{}
	tok, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid")
		}
		return v.jwks.getKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}
	if tok == nil || !tok.Valid {
		return nil, fmt.Errorf("invalid id token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("missing sub")
	}
	return &Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
