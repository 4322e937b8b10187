package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/question"
)

var questionColumns = []string{
	"id", "topic", "text", "branch", "photo", "photo_id", "user_id", "college_name", "answers", "created_at", "updated_at",
}

var (
	questionSelect = `SELECT ` + strings.Join(questionColumns, ", ") + ` FROM question`
	questionInsert = `INSERT INTO question (` + strings.Join(questionColumns, ", ") + `) VALUES (:` + strings.Join(questionColumns, ", :") + `)`
	questionUpdate = `UPDATE question SET topic = :topic, text = :text, branch = :branch, photo = :photo, photo_id = :photo_id,
		answers = :answers, updated_at = :updated_at WHERE id = :id`
)

type questionRepository struct {
	exec core.DBExecutor
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(exec core.DBExecutor) question.Repository {
	return &questionRepository{exec: exec}
}

func (repo questionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo questionRepository) QueryQuestions(ctx context.Context, filter question.QueryFilter, exec ...core.DBExecutor) ([]question.Question, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Branch != "" {
		where = append(where, "branch = ?")
		args = append(args, filter.Branch)
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return []question.Question{}, nil
		}
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := questionSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	db := repo.getExec(exec)
	questions := make([]question.Question, 0)
	if err := db.SelectContext(ctx, &questions, db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	return questions, nil
}

func (repo questionRepository) GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (question.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return question.Question{}, question.ErrNotFound
	}
	var q question.Question
	if err := repo.getExec(exec).GetContext(ctx, &q, questionSelect+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, errors.Wrap(err, "getting question")
	}
	return q, nil
}

func (repo questionRepository) CreateQuestion(ctx context.Context, q question.Question, exec ...core.DBExecutor) (question.Question, error) {
	q.ID = uuid.New().String()
	if _, err := repo.getExec(exec).NamedExecContext(ctx, questionInsert, q); err != nil {
		return question.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo questionRepository) UpdateQuestion(ctx context.Context, q question.Question, exec ...core.DBExecutor) (question.Question, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, questionUpdate, q)
	if err != nil {
		return question.Question{}, errors.Wrap(err, "updating question")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return question.Question{}, question.ErrNotFound
	}
	return q, nil
}
