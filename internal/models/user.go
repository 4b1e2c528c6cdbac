package models

import "time"

// UserRole is the privilege tier of an account. Tiers are ranked; privilege
// checks compare explicit ranks rather than enum positions.
type UserRole string

const (
	RoleUser       UserRole = "USER"
	RolePremium    UserRole = "PREMIUM_USER"
	RoleModerator  UserRole = "MODERATOR"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

var roleRanks = map[UserRole]int{
	RoleUser:       1,
	RolePremium:    2,
	RoleModerator:  3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

var roleNames = map[UserRole]string{
	RoleUser:       "User",
	RolePremium:    "Premium User",
	RoleModerator:  "Moderator",
	RoleAdmin:      "Administrator",
	RoleSuperAdmin: "Super Administrator",
}

// Rank returns the numeric privilege rank (1 = user, 5 = super admin).
func (r UserRole) Rank() int {
	return roleRanks[r]
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// DisplayName returns the human-readable role name.
func (r UserRole) DisplayName() string {
	return roleNames[r]
}

// HasModeratorPrivileges reports whether the role is moderator or above.
func (r UserRole) HasModeratorPrivileges() bool {
	return r.Rank() >= roleRanks[RoleModerator]
}

// HasAdminPrivileges reports whether the role is admin or above.
func (r UserRole) HasAdminPrivileges() bool {
	return r.Rank() >= roleRanks[RoleAdmin]
}

// User is an account in the learning platform. The password is stored only as
// a bcrypt hash (always 60 bytes). Verification and reset tokens are opaque
// single-use strings cleared when consumed.
type User struct {
	AuditBase
	Username     string `gorm:"size:50;not null;uniqueIndex:idx_user_username" json:"username"`
	Email        string `gorm:"size:100;not null;uniqueIndex:idx_user_email" json:"email"`
	PasswordHash string `gorm:"size:60;not null" json:"-"`
	FirstName    string `gorm:"size:100" json:"first_name,omitempty"`
	LastName     string `gorm:"size:100" json:"last_name,omitempty"`

	Role UserRole `gorm:"size:20;not null;default:USER" json:"role"`

	EmailVerified          bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerificationToken *string    `gorm:"size:64;index" json:"-"`
	PasswordResetToken     *string    `gorm:"size:64;index" json:"-"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
	LoginAttempts          int        `gorm:"not null;default:0" json:"-"`
	AccountLockedUntil     *time.Time `json:"-"`

	Preferences Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`

	FavoriteTopics []Topic `gorm:"many2many:user_favorite_topics" json:"favorite_topics,omitempty"`
}

// NewUser builds a user from the required fields with default preferences.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		AuditBase:    AuditBase{Active: true},
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Preferences:  DefaultPreferences(),
	}
}

// FullName resolves to "first last" when both names are set, the single set
// name when only one is, and the username when neither is.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Locked reports whether the account is locked out at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}
