package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/catalog"
)

var nonDigitRegex = regexp.MustCompile(`\D`)

// Affiliation is what a user is at their college: a Student{} or a Faculty{}.
type Affiliation interface {
	Role() string
	StudyType() string
}

type Student struct {
	Study string
}

func (s Student) Role() string      { return RoleStudent }
func (s Student) StudyType() string { return s.Study }

type Faculty struct{}

func (Faculty) Role() string      { return RoleFaculty }
func (Faculty) StudyType() string { return catalog.NonApplicable }

// ProfileForm is the profile as submitted by a client.
// College and branch hold catalog keys, or catalog.Custom along with the free text alternative.
type ProfileForm struct {
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	CollegeName  string `json:"college_name"`
	OtherCollege string `json:"other_college"`
	Branch       string `json:"branch"`
	OtherBranch  string `json:"other_branch"`
	StudyType    string `json:"study_type"`
	Phone        string `json:"phone"`
	Gender       string `json:"gender"`
	DOB          string `json:"dob"` // YYYY-MM-DD
}

// Clean trims the form. Non-digits are dropped from the phone number.
func (pf *ProfileForm) Clean() {
	pf.DisplayName = core.CleanString(pf.DisplayName)
	pf.Role = core.CleanString(pf.Role, true /* lower */)
	pf.CollegeName = core.CleanString(pf.CollegeName)
	pf.OtherCollege = core.CleanString(pf.OtherCollege)
	pf.Branch = core.CleanString(pf.Branch)
	pf.OtherBranch = core.CleanString(pf.OtherBranch)
	pf.StudyType = core.CleanString(pf.StudyType)
	pf.Phone = nonDigitRegex.ReplaceAllString(pf.Phone, "")
	pf.Gender = core.CleanString(pf.Gender)
	pf.DOB = core.CleanString(pf.DOB)
}

// Affiliation returns the tagged variant matching the form's role.
func (pf ProfileForm) Affiliation() (Affiliation, bool) {
	switch pf.Role {
	case RoleStudent:
		return Student{Study: pf.StudyType}, true
	case RoleFaculty:
		return Faculty{}, true
	}
	return nil, false
}

// Validate cleans and checks the form, reporting every invalid field at once.
// On success it returns the Profile to store.
func (pf *ProfileForm) Validate(now time.Time) (Profile, error) {
	pf.Clean()

	var errs []*core.InputError
	add := func(err error) {
		if err == nil {
			return
		}
		if vErr, ok := err.(*core.ValidationError); ok {
			for _, f := range vErr.Fields {
				errs = append(errs, core.NewInputError(core.ErrMissingField, f.Field, f.Error))
			}
			return
		}
		if iErr, ok := err.(*core.InputError); ok {
			errs = append(errs, iErr)
		}
	}

	add(ValidateRequired(pf.Role, pf.Branch, pf.StudyType, pf.Gender, pf.CollegeName))

	aff, ok := pf.Affiliation()
	if pf.Role != "" && !ok {
		add(core.NewInputError(core.ErrInvalidFormat, "role", "Role is invalid"))
	}

	college, collegeErr := pf.effectiveCollege()
	add(collegeErr)
	branch, branchErr := pf.effectiveBranch()
	add(branchErr)

	if pf.Role == RoleStudent && pf.StudyType != "" && !catalog.Has(catalog.StudyTypes, pf.StudyType) {
		add(core.NewInputError(core.ErrInvalidFormat, "study_type", "Type of study is invalid"))
	}
	add(ValidatePhone(pf.Phone))
	add(ValidateDOB(pf.DOB, now))
	if pf.Gender != "" && !catalog.Has(catalog.Genders, pf.Gender) {
		add(core.NewInputError(core.ErrInvalidFormat, "gender", "Gender is invalid"))
	}

	if err := core.NewInputValidationError(errs...); err != nil {
		return Profile{}, err
	}
	return NewProfile(aff, college, branch, pf.Phone, pf.Gender, pf.DOB), nil
}

// effectiveCollege resolves a catalog key to its label, or the free text for catalog.Custom.
// A catalog label is accepted as is, so a saved profile can be resubmitted unchanged.
func (pf ProfileForm) effectiveCollege() (string, error) {
	switch {
	case pf.CollegeName == "":
		return "", nil // reported as missing
	case pf.CollegeName == catalog.Custom:
		if pf.OtherCollege == "" {
			return "", core.NewInputError(core.ErrMissingField, "other_college", "Please specify your college")
		}
		return pf.OtherCollege, nil
	}
	if lbl, ok := catalog.Label(catalog.Colleges, pf.CollegeName); ok {
		return lbl, nil
	}
	for _, c := range catalog.Colleges {
		if c.Label == pf.CollegeName && c.Value != catalog.Custom {
			return c.Label, nil
		}
	}
	return "", core.NewInputError(core.ErrInvalidFormat, "college_name", "College name is invalid")
}

// effectiveBranch returns the catalog key, or the normalized free text for catalog.Custom.
func (pf ProfileForm) effectiveBranch() (string, error) {
	switch {
	case pf.Branch == "":
		return "", nil // reported as missing
	case pf.Branch == catalog.Custom:
		if pf.OtherBranch == "" {
			return "", core.NewInputError(core.ErrMissingField, "other_branch", "Please specify your branch")
		}
		return catalog.NormalizeBranch(pf.OtherBranch), nil
	case catalog.Has(catalog.Branches, pf.Branch):
		return pf.Branch, nil
	}
	return "", core.NewInputError(core.ErrInvalidFormat, "branch", "Branch is invalid")
}

// NewProfile builds a Profile from a valid affiliation. Faculty always get the non-applicable study type.
func NewProfile(aff Affiliation, college, branch, phone, gender, dob string) Profile {
	p := Profile{
		Role:        aff.Role(),
		StudyType:   aff.StudyType(),
		CollegeName: strings.TrimSpace(college),
		Branch:      branch,
		Phone:       phone,
		Gender:      gender,
		DOB:         dob,
	}
	p.ProfileCompleted = p.IsComplete()
	return p
}
