package user

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/mrhat05/Doubtroom/core"
	appfs "github.com/mrhat05/Doubtroom/fs"
)

var (
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

	userEmailTag  = "useremail"
	userEmailText = "Email is invalid"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag   = "pwdnocommon"
	pwdNoCommonText  = "password is too common"
	commonPasswords  = make([]string, 0, 128)
	commonPwdsAssset = "assets/common-passwords.txt"
)

func init() {
	loadCommonPasswords()

	_ = core.Validate.RegisterValidation(userEmailTag, userEmailValidation)
	core.RegisterCustomTranslation(userEmailTag, userEmailText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ResetUserPassword{})
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords() {
	file, err := appfs.FS.Open(commonPwdsAssset)
	if err != nil {
		return
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			commonPasswords = append(commonPasswords, strings.ToLower(pwd))
		}
	}
	sort.Strings(commonPasswords)
}

// Field validators. Each returns nil or a *core.InputError.

func ValidateEmail(email string) error {
	if email == "" {
		return core.NewInputError(core.ErrMissingField, "email", "Email is required")
	}
	if !emailRegex.MatchString(email) {
		return core.NewInputError(core.ErrInvalidFormat, "email", "Email is invalid")
	}
	return nil
}

// ValidatePassword only checks presence; the password policy applies on signup and reset.
func ValidatePassword(pwd string) error {
	if pwd == "" {
		return core.NewInputError(core.ErrMissingField, "password", "Password is required")
	}
	return nil
}

// ValidatePhone accepts an empty phone number.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return core.NewInputError(core.ErrInvalidFormat, "phone", "Please enter a valid 10-digit phone number")
	}
	return nil
}

// ValidateRequired checks the profile fields that must be filled in. Study type is not required from faculty.
func ValidateRequired(role, branch, studyType, gender, collegeName string) error {
	var errs []*core.InputError
	if strings.TrimSpace(role) == "" {
		errs = append(errs, core.NewInputError(core.ErrMissingField, "role", "Role is required"))
	}
	if strings.TrimSpace(collegeName) == "" {
		errs = append(errs, core.NewInputError(core.ErrMissingField, "college_name", "College name is required"))
	}
	if strings.TrimSpace(branch) == "" {
		errs = append(errs, core.NewInputError(core.ErrMissingField, "branch", "Branch is required"))
	}
	if role != RoleFaculty && strings.TrimSpace(studyType) == "" {
		errs = append(errs, core.NewInputError(core.ErrMissingField, "study_type", "Type of study is required"))
	}
	if strings.TrimSpace(gender) == "" {
		errs = append(errs, core.NewInputError(core.ErrMissingField, "gender", "Gender is required"))
	}
	return core.NewInputValidationError(errs...)
}

// ValidateLogin validates credentials before they are checked against the store.
func ValidateLogin(email, pwd string) error {
	var errs []*core.InputError
	if err := ValidateEmail(email); err != nil {
		errs = append(errs, err.(*core.InputError))
	}
	if err := ValidatePassword(pwd); err != nil {
		errs = append(errs, err.(*core.InputError))
	}
	return core.NewInputValidationError(errs...)
}

// Custom Validators

func userEmailValidation(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

// userStructValidation applies the password policy on NewUser, UpdateUser and ResetUserPassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(usr.Password, sl, usr.DisplayName, usr.Email)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, sl, usr.DisplayName, usr.Email)
		}
	case ResetUserPassword:
		validatePassword(usr.Password, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func validatePassword(pwd string, sl validator.StructLevel, usrAttrs ...string) {
	if pwd == "" {
		return // reported by `required`
	}
	if tag := checkPasswordPolicy(pwd, usrAttrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// checkPasswordPolicy returns the tag of the first broken rule, if any.
func checkPasswordPolicy(pwd string, usrAttrs ...string) string {
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	// - minLen: 8
	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		// - no whitespace
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	// - not all numeric
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	// - complexity: 1 upper, 1 lower, 1 digit & 1 special
	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return pwdComplexityTag
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	for _, attr := range usrAttrs {
		if getRatio(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	// - no common passwords
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) {
		if match := commonPasswords[idx]; lpwd == match {
			return pwdNoCommonTag
		}
	}
	return ""
}
