package model

type CredentialType string

const (
	CredTypePassword CredentialType = "password"
	CredTypeGoogle   CredentialType = "google"
	CredTypeFacebook CredentialType = "facebook"
)

func (ct CredentialType) IsValid() bool {
	switch ct {
	case CredTypePassword, CredTypeGoogle, CredTypeFacebook:
		return true
	}
	return false
}

// Role codes seeded at startup.
const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
	RoleUser   = "user"
)
