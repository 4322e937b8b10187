package question

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
)

var (
	ErrNotFound  = fmt.Errorf("question %w", core.ErrNotFound)
	ErrForbidden = fmt.Errorf("question %w", core.ErrForbidden)
)

// now reads the user package clock, so questions and streaks share one mockable clock.
func now() time.Time { return user.NowFunc() }

type (
	Repository interface {
		QueryQuestions(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Question, error)
		GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		UpdateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
	}

	Service interface {
		List(ctx context.Context, filter QueryFilter) ([]Question, error)
		GetByID(ctx context.Context, id string) (Question, error)
		Create(ctx context.Context, author user.User, nq NewQuestion, photo *core.Upload) (Question, error)
		Update(ctx context.Context, actor user.User, id string, uq UpdateQuestion, photo *core.Upload) (Question, error)
		RemovePhoto(ctx context.Context, actor user.User, id string) (Question, error)
	}

	service struct {
		repo    Repository
		assets  core.AssetStorage
		userSvc user.Service
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, assets core.AssetStorage, userSvc user.Service, logger core.Logger) Service {
	return &service{
		repo:    repo,
		assets:  assets,
		userSvc: userSvc,
		logger:  logger,
	}
}

// List returns the questions matching filter, newest first.
func (svc *service) List(ctx context.Context, filter QueryFilter) ([]Question, error) {
	filter.Clean()
	questions, err := svc.repo.QueryQuestions(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].CreatedAt.After(questions[j].CreatedAt)
	})
	return questions, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

// Create stores a new question, uploading its photo first.
// Posting counts as activity for the author's streak and earns star dust.
func (svc *service) Create(ctx context.Context, author user.User, nq NewQuestion, photo *core.Upload) (Question, error) {
	if err := nq.Validate(); err != nil {
		return Question{}, err
	}
	if err := ValidatePhoto(photo); err != nil {
		return Question{}, err
	}

	createdAt := now().UTC()
	q := Question{
		Topic:       nq.Topic,
		Text:        nq.Text,
		Branch:      nq.Branch,
		UserID:      author.ID,
		CollegeName: author.CollegeName,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if photo != nil {
		asset, err := svc.assets.UploadImage(ctx, *photo)
		if err != nil {
			return Question{}, errors.Wrap(err, "uploading photo")
		}
		q.setPhoto(&asset)
	}

	q, err := svc.repo.CreateQuestion(ctx, q)
	if err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}

	if _, err := svc.userSvc.RecordActivity(ctx, author, core.Conf.StarDustPointsPerQuestion); err != nil {
		svc.logger.Error("recording activity", errors.Wrap(err, "recording activity"), logPerson(author))
	}
	return q, nil
}

// Update modifies a question owned by actor (admins may update any question).
// A new photo replaces the previous one, which is only deleted once the record points at the new one.
func (svc *service) Update(ctx context.Context, actor user.User, id string, uq UpdateQuestion, photo *core.Upload) (Question, error) {
	if err := uq.Validate(); err != nil {
		return Question{}, err
	}
	if err := ValidatePhoto(photo); err != nil {
		return Question{}, err
	}

	q, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Question{}, err
	}

	if uq.Topic != nil {
		q.Topic = *uq.Topic
	}
	if uq.Text != nil {
		q.Text = *uq.Text
	}
	if uq.Branch != nil {
		q.Branch = *uq.Branch
	}
	prev := q
	if photo != nil {
		asset, err := svc.assets.UploadImage(ctx, *photo)
		if err != nil {
			return Question{}, errors.Wrap(err, "uploading photo")
		}
		q.setPhoto(&asset)
	}
	q.UpdatedAt = now().UTC()

	updated, err := svc.repo.UpdateQuestion(ctx, q)
	if err != nil {
		if photo != nil {
			svc.deleteAsset(ctx, actor, q)
		}
		return Question{}, errors.Wrap(err, "updating question")
	}
	if photo != nil && prev.HasPhoto() {
		svc.deleteAsset(ctx, actor, prev)
	}
	return updated, nil
}

// RemovePhoto clears the photo fields, then deletes the photo.
func (svc *service) RemovePhoto(ctx context.Context, actor user.User, id string) (Question, error) {
	q, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Question{}, err
	}
	if !q.HasPhoto() {
		return q, nil
	}

	prev := q
	q.setPhoto(nil)
	q.UpdatedAt = now().UTC()

	if q, err = svc.repo.UpdateQuestion(ctx, q); err != nil {
		return Question{}, errors.Wrap(err, "updating question")
	}
	svc.deleteAsset(ctx, actor, prev)
	return q, nil
}

func (svc *service) getOwned(ctx context.Context, actor user.User, id string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.UserID != actor.ID && !actor.IsAdmin {
		return Question{}, ErrForbidden
	}
	return q, nil
}

// deleteAsset is best effort: a failure is logged along with the orphaned file id, and never blocks the caller.
func (svc *service) deleteAsset(ctx context.Context, actor user.User, q Question) {
	if err := svc.assets.DeleteImage(ctx, *q.PhotoID); err != nil {
		svc.logger.Warn(
			"deleting question photo",
			errors.Wrap(err, "deleting question photo"),
			map[string]interface{}{"question_id": q.ID, "orphaned_file_id": *q.PhotoID},
			logPerson(actor),
		)
	}
}

func logPerson(usr user.User) core.LogPerson {
	return core.LogPerson{ID: usr.ID, Username: usr.DisplayName, Email: usr.Email}
}
