package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "clubcore"

// Claims is the JWT claim set shared by facility, platform and impersonation
// tokens. Scope decides which optional fields are meaningful; ParseAndValidate
// rejects tokens that mix the two scopes.
type Claims struct {
	Email        string `json:"email,omitempty"`
	Scope        string `json:"scope"`
	TenantID     string `json:"tenant_id,omitempty"`
	TenantRole   string `json:"tenant_role,omitempty"`
	PlatformRole string `json:"platform_role,omitempty"`

	// Act names the originating platform operator on impersonation tokens
	// (RFC 8693 actor semantics). SessionID is the redis-backed session key.
	Act *ActClaim `json:"act,omitempty"`

	jwt.RegisteredClaims
}

type ActClaim struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"sub"`
	Email     string `json:"email,omitempty"`
}

// Issuer mints and verifies the HS256 tokens used across the API.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// IssueFacility signs a token for a facility user bound to its tenant.
func (i *Issuer) IssueFacility(userID, tenantID uuid.UUID, email, tenantRole string) (string, error) {
	if tenantID == uuid.Nil {
		return "", fmt.Errorf("issue facility token: tenant id required")
	}
	claims := Claims{
		Email:      email,
		Scope:      string(ScopeFacility),
		TenantID:   tenantID.String(),
		TenantRole: tenantRole,
	}
	return i.sign(userID, claims, i.ttl)
}

// IssuePlatform signs a token for an internal operator. No tenant binding.
func (i *Issuer) IssuePlatform(userID uuid.UUID, email string, role PlatformRole) (string, error) {
	if !ValidPlatformRole(role) {
		return "", fmt.Errorf("issue platform token: unknown role %q", role)
	}
	claims := Claims{
		Email:        email,
		Scope:        string(ScopePlatform),
		PlatformRole: string(role),
	}
	return i.sign(userID, claims, i.ttl)
}

// IssueImpersonation signs a facility-scoped token for the target user that
// carries the originating operator in the act claim. TTL is fixed by the
// caller and never renewable; a new session requires a new start.
func (i *Issuer) IssueImpersonation(target Principal, act ActClaim, ttl time.Duration) (string, error) {
	if target.Scope != ScopeFacility || target.TenantID == uuid.Nil {
		return "", fmt.Errorf("issue impersonation token: target must be a facility principal")
	}
	claims := Claims{
		Email:      target.Email,
		Scope:      string(ScopeFacility),
		TenantID:   target.TenantID.String(),
		TenantRole: target.TenantRole,
		Act:        &act,
	}
	return i.sign(target.UserID, claims, ttl)
}

func (i *Issuer) sign(subject uuid.UUID, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies the signature and claim shape, and maps the
// claims onto a Principal. Any malformed or ambiguous token resolves to
// ErrInvalidToken — never to a default principal.
func (i *Issuer) ParseAndValidate(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuerName {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	p := Principal{UserID: userID, Email: claims.Email}

	switch Scope(claims.Scope) {
	case ScopeFacility:
		// A facility token must carry a tenant and must not smuggle a
		// platform role.
		if claims.PlatformRole != "" {
			return nil, ErrInvalidToken
		}
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil || tenantID == uuid.Nil {
			return nil, ErrInvalidToken
		}
		p.Scope = ScopeFacility
		p.TenantID = tenantID
		p.TenantRole = claims.TenantRole
	case ScopePlatform:
		if claims.TenantID != "" || claims.TenantRole != "" || claims.Act != nil {
			return nil, ErrInvalidToken
		}
		role := PlatformRole(claims.PlatformRole)
		if role != "" && !ValidPlatformRole(role) {
			return nil, ErrInvalidToken
		}
		p.Scope = ScopePlatform
		p.PlatformRole = role
	default:
		return nil, ErrInvalidToken
	}

	if claims.Act != nil {
		sessionID, err := uuid.Parse(claims.Act.SessionID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		actorID, err := uuid.Parse(claims.Act.UserID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		p.Impersonation = &Actor{SessionID: sessionID, UserID: actorID, Email: claims.Act.Email}
	}

	return &p, nil
}
