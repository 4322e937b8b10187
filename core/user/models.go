package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrhat05/Doubtroom/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

const ProviderEmail = "email"

var AllRoles = []string{RoleStudent, RoleFaculty}

// Profile holds the academic information a user fills in after signing up.
type Profile struct {
	Role             string `json:"role" db:"role"`
	CollegeName      string `json:"college_name" db:"college_name"`
	Branch           string `json:"branch" db:"branch"`
	StudyType        string `json:"study_type" db:"study_type"`
	Phone            string `json:"phone" db:"phone"`
	Gender           string `json:"gender" db:"gender"`
	DOB              string `json:"dob" db:"dob"` // YYYY-MM-DD
	ProfileCompleted bool   `json:"profile_completed" db:"profile_completed"`
}

// IsComplete reports whether role, college and branch are all set.
func (p Profile) IsComplete() bool {
	return p.Role != "" && p.CollegeName != "" && p.Branch != ""
}

// Exists reports whether a profile was ever saved. A saved profile always has a role.
func (p Profile) Exists() bool {
	return p.Role != ""
}

// OTP is an email verification code.
type OTP struct {
	Code      string     `json:"-" db:"otp_code"`
	ExpiresAt *time.Time `json:"-" db:"otp_expires_at"`
	Attempts  int        `json:"-" db:"otp_attempts"` // wrong codes entered
}

func (o OTP) Expired(now time.Time) bool {
	return o.ExpiresAt == nil || now.After(*o.ExpiresAt)
}

type Streak struct {
	Current  int        `json:"current_streak" db:"current_streak"`
	Longest  int        `json:"longest_streak" db:"longest_streak"`
	LastDate *time.Time `json:"last_streak_date" db:"last_streak_date"` // UTC day
}

// Touch records activity on the day of `now`:
// same day keeps the streak, the next day extends it, any later day restarts it.
func (s *Streak) Touch(now time.Time) {
	today := truncateDay(now)
	switch {
	case s.LastDate == nil:
		s.Current = 1
	case truncateDay(*s.LastDate).Equal(today):
		if s.Current == 0 {
			s.Current = 1
		}
	case truncateDay(*s.LastDate).AddDate(0, 0, 1).Equal(today):
		s.Current++
	default:
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastDate = &today
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type User struct {
	ID                   string     `json:"id" db:"id"`
	Email                string     `json:"email" db:"email"`
	DisplayName          string     `json:"display_name" db:"display_name"`
	PhotoURL             string     `json:"photo_url" db:"photo_url"`
	PhotoID              string     `json:"-" db:"photo_id"`
	Provider             string     `json:"provider" db:"provider"`
	IsActive             *bool      `json:"is_active" db:"is_active"`
	IsAdmin              bool       `json:"is_admin" db:"is_admin"`
	EmailVerified        bool       `json:"email_verified" db:"email_verified"`
	PasswordRecoveryDone bool       `json:"password_recovery_done" db:"password_recovery_done"`
	StarDustPoints       int        `json:"star_dust_points" db:"star_dust_points"`
	RefreshToken         int64      `json:"-" db:"refresh_token"` // `oriat` of the last issued token
	PasswordHash         []byte     `json:"-" db:"password_hash"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin            *time.Time `json:"last_login" db:"last_login"` // UTC

	Profile
	Streak
	OTP `json:"-"`
}

// SetPassword hashes pwd. Setting a password marks the password recovery as done.
func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.PasswordRecoveryDone = true
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// AddStarDust adds points, never letting the balance go below zero.
func (u *User) AddStarDust(points int) {
	u.StarDustPoints += points
	if u.StarDustPoints < 0 {
		u.StarDustPoints = 0
	}
}

// Principal is the identity handed to clients once authenticated.
type Principal struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`
	Token         string `json:"token,omitempty"`
}

func (u User) Principal(token string) Principal {
	return Principal{
		UID:           u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		Token:         token,
	}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	DisplayName     string `json:"display_name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,useremail"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	IsAdmin         bool   `json:"is_admin"`
	EmailVerified   bool   `json:"email_verified"`
}

func (nu *NewUser) Validate(ctx context.Context, svc Service) error {
	nu.DisplayName = core.CleanString(nu.DisplayName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	DisplayName     string `json:"display_name"`
	Email           string `json:"email" validate:"omitempty,useremail"`
	IsActive        *bool  `json:"is_active"`
	IsAdmin         *bool  `json:"is_admin"`
	EmailVerified   *bool  `json:"email_verified"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc Service) error {
	name := core.CleanString(uu.DisplayName)
	if name != "" {
		uu.DisplayName = name
	} else {
		uu.DisplayName = origUsr.DisplayName
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// GetFilter selects a single User. The first non-empty field is used.
type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search        string    `query:"search"`
	Roles         []string  `query:"role"`
	IsActive      *bool     `query:"is_active"`
	IsAdmin       *bool     `query:"is_admin"`
	EmailVerified *bool     `query:"email_verified"`
	CreatedFrom   time.Time `query:"created_from"`
	CreatedTo     time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.IsAdmin == nil &&
		qf.EmailVerified == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// OrderingFields are the fields users may be ordered by.
var OrderingFields = []string{"created_at", "email", "display_name", "star_dust_points", "current_streak"}

func isOrderingField(field string) bool {
	for _, f := range OrderingFields {
		if f == field {
			return true
		}
	}
	return false
}

// CleanOrdering drops unknown fields. Defaults to the newest users first.
func CleanOrdering(ordering []core.DBOrdering) []core.DBOrdering {
	cleaned := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if isOrderingField(ord.Field) {
			cleaned = append(cleaned, ord)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, core.DBOrdering{Field: "created_at"})
	}
	return cleaned
}
