package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/catalog"
	"github.com/mrhat05/Doubtroom/core/user"
)

var (
	orderingParam    = "ordering"
	contextObjectKey = "object"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field,-other` ("-" for descending).
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	// AuthResponse describes the signed in user and where they are in the onboarding.
	AuthResponse struct {
		Token string         `json:"token,omitempty"`
		User  user.Principal `json:"user"`
		Stage string         `json:"stage"`
	}

	VerifyEmailRequest struct {
		Code string `json:"code"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,useremail"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ProfileResponse struct {
		UID         string `json:"uid"`
		DisplayName string `json:"display_name"`
		user.Profile
	}

	CatalogResponse struct {
		Roles      []catalog.Choice `json:"roles"`
		Genders    []catalog.Choice `json:"genders"`
		StudyTypes []catalog.Choice `json:"study_types"`
		Branches   []catalog.Choice `json:"branches"`
		Colleges   []catalog.Choice `json:"colleges"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}
