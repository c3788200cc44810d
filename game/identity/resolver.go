package identity

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const issuer = "gameroom"

// Resolver yields the display name of the user opening a connection, if the
// request carries one the server can trust
type Resolver interface {
	ResolveDisplayName(r *http.Request) (string, bool)
}

// NopResolver never resolves a name; every connection starts as Anonymous
type NopResolver struct{}

func (NopResolver) ResolveDisplayName(*http.Request) (string, bool) { return "", false }

// Claims is the token payload issued by the account service
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTResolver reads an HS256 token from the token query parameter or a
// Bearer Authorization header and returns its username claim
type JWTResolver struct {
	secret []byte
	log    zerolog.Logger
}

// NewJWTResolver creates a resolver verifying tokens with secret
func NewJWTResolver(secret string, log zerolog.Logger) (*JWTResolver, error) {
	if secret == "" {
		return nil, eris.New("jwt secret must not be empty")
	}
	return &JWTResolver{
		secret: []byte(secret),
		log:    log.With().Str("module", "identity").Logger(),
	}, nil
}

// NewResolver returns a JWTResolver when secret is set and a NopResolver otherwise
func NewResolver(secret string, log zerolog.Logger) Resolver {
	r, err := NewJWTResolver(secret, log)
	if err != nil {
		return NopResolver{}
	}
	return r
}

func (j *JWTResolver) ResolveDisplayName(r *http.Request) (string, bool) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return "", false
	}

	claims, err := j.Validate(raw)
	if err != nil {
		j.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("rejected display name token")
		return "", false
	}
	if claims.Username == "" {
		return "", false
	}
	return claims.Username, true
}

// Validate parses raw and checks its signature and expiry
func (j *JWTResolver) Validate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, eris.Wrap(err, "invalid token")
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Issue signs a token carrying username, valid for ttl
func (j *JWTResolver) Issue(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
