package domain

import (
	"time"

	billingdomain "github.com/smallbiznis/coursehub/internal/billing/domain"
)

// RoleUser is granted to every authenticated principal.
const RoleUser = "ROLE_USER"

// Principal is the signed-in caller of one session together with the tokens
// the billing service issued for it.
type Principal struct {
	Email        string    `json:"email"`
	GrantedRoles []string  `json:"roles"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewPrincipal builds a principal from freshly issued tokens.
func NewPrincipal(auth billingdomain.AuthData, now time.Time) (*Principal, error) {
	p := &Principal{}
	if err := p.Apply(auth, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply replaces the tokens, roles and expiry with those of auth.
func (p *Principal) Apply(auth billingdomain.AuthData, now time.Time) error {
	claims, err := DecodeClaims(auth.Token, now)
	if err != nil {
		return err
	}
	if claims.Username != "" {
		p.Email = claims.Username
	}
	p.GrantedRoles = mergeRoles(auth.Roles, claims.Roles)
	p.AccessToken = auth.Token
	p.RefreshToken = auth.RefreshToken
	p.ExpiresAt = claims.ExpiresAt
	return nil
}

// Roles is the role set, always including RoleUser.
func (p *Principal) Roles() []string {
	return mergeRoles([]string{RoleUser}, p.GrantedRoles)
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// Expired reports whether the access token is no longer usable at now.
func (p *Principal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

func mergeRoles(sets ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, set := range sets {
		for _, role := range set {
			if role == "" {
				continue
			}
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			out = append(out, role)
		}
	}
	return out
}
