package question

import (
	"strings"
	"time"

	"github.com/mrhat05/Doubtroom/core"
)

var blankText = "this field cannot be blank"

type Question struct {
	ID          string    `json:"id" db:"id"`
	Topic       string    `json:"topic" db:"topic"`
	Text        string    `json:"text" db:"text"`
	Branch      string    `json:"branch" db:"branch"`
	Photo       *string   `json:"photo" db:"photo"`
	PhotoID     *string   `json:"photo_id" db:"photo_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CollegeName string    `json:"college_name" db:"college_name"`
	Answers     int       `json:"answers" db:"answers"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (q Question) HasPhoto() bool {
	return q.PhotoID != nil && *q.PhotoID != ""
}

func (q *Question) setPhoto(asset *core.Asset) {
	if asset == nil {
		q.Photo, q.PhotoID = nil, nil
		return
	}
	url, id := asset.URL, asset.FileID
	q.Photo, q.PhotoID = &url, &id
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	Topic  string `json:"topic" form:"topic" validate:"required,notblank,max=200"`
	Text   string `json:"text" form:"text" validate:"required,notblank"`
	Branch string `json:"branch" form:"branch" validate:"required,notblank"`
}

func (nq *NewQuestion) Validate() error {
	nq.Topic = core.CleanString(nq.Topic)
	nq.Text = core.CleanString(nq.Text)
	nq.Branch = core.CleanString(nq.Branch)
	return core.Validate.Struct(nq)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
// Nil fields are left unchanged.
type UpdateQuestion struct {
	Topic  *string `json:"topic" form:"topic"`
	Text   *string `json:"text" form:"text"`
	Branch *string `json:"branch" form:"branch"`
}

func (uq *UpdateQuestion) Validate() error {
	var flds []core.FieldError
	clean := func(field string, val *string) {
		if val == nil {
			return
		}
		*val = core.CleanString(*val)
		if *val == "" {
			flds = append(flds, core.FieldError{Field: field, Error: blankText})
		}
	}
	clean("topic", uq.Topic)
	clean("text", uq.Text)
	clean("branch", uq.Branch)

	if uq.Topic != nil && len([]rune(*uq.Topic)) > 200 {
		flds = append(flds, core.FieldError{Field: "topic", Error: "topic must be a maximum of 200 characters in length"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (uq UpdateQuestion) IsEmpty() bool {
	return uq.Topic == nil && uq.Text == nil && uq.Branch == nil
}

type QueryFilter struct {
	Branch string `query:"branch"`
	UserID string `query:"user_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Branch = core.CleanString(qf.Branch)
	qf.UserID = core.CleanString(qf.UserID)
}

// ValidatePhoto only accepts images.
func ValidatePhoto(photo *core.Upload) error {
	if photo == nil {
		return nil
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return core.NewValidationError(nil, core.FieldError{Field: "photo", Error: "only images are allowed"})
	}
	return nil
}
