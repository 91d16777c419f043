package domain

// AccountType represents the kind of account a user holds.
type AccountType string

const (
	// MasterAccount represents an internal operator with unrestricted access.
	MasterAccount AccountType = "master"
	// ClientAccount represents a user scoped to a single client organisation.
	ClientAccount AccountType = "client"
)

// UserProfile represents the authenticated user as returned by the backend.
type UserProfile struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	AccountType AccountType `json:"account_type"`
	ClientID    string      `json:"client_id,omitempty"`
	Active      bool        `json:"active"`
	Permissions []string    `json:"permissions,omitempty"`
}

// IsMaster returns true for master accounts.
func (u *UserProfile) IsMaster() bool {
	return u.AccountType == MasterAccount
}

// HasPermission reports whether the user holds the named permission.
// Master accounts hold every permission unconditionally; other accounts hold
// exactly the permissions listed on the profile.
func (u *UserProfile) HasPermission(name string) bool {
	if u.IsMaster() {
		return true
	}
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// UserUpdate represents a partial profile update. Nil fields are left as-is.
type UserUpdate struct {
	Username    *string      `json:"username,omitempty"`
	Email       *string      `json:"email,omitempty"`
	FullName    *string      `json:"full_name,omitempty"`
	AccountType *AccountType `json:"account_type,omitempty"`
	ClientID    *string      `json:"client_id,omitempty"`
	Active      *bool        `json:"active,omitempty"`
	Permissions *[]string    `json:"permissions,omitempty"`
}

// Merge shallow-merges the update into a copy of the profile.
func (u UserProfile) Merge(update UserUpdate) UserProfile {
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.AccountType != nil {
		u.AccountType = *update.AccountType
	}
	if update.ClientID != nil {
		u.ClientID = *update.ClientID
	}
	if update.Active != nil {
		u.Active = *update.Active
	}
	if update.Permissions != nil {
		u.Permissions = append([]string(nil), (*update.Permissions)...)
	}
	return u
}

// Credentials carries everything the login endpoint accepts. Captcha and OTP
// are optional second legs the backend may demand.
type Credentials struct {
	Username     string
	Password     string
	CaptchaToken string
	OTP          string
}

// LoginResponse is the wire shape returned by login and refresh.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}
