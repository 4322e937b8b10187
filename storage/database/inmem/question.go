package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/question"
)

type questionRepository struct {
	db *questionTable
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) question.Repository {
	return &questionRepository{db: db.question}
}

// QueryQuestions returns the matching questions in no particular order.
func (repo *questionRepository) QueryQuestions(_ context.Context, filter question.QueryFilter, _ ...core.DBExecutor) ([]question.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]question.Question, 0, len(repo.db.table))
	for _, q := range repo.db.table {
		if filter.Branch != "" && q.Branch != filter.Branch {
			continue
		}
		if filter.UserID != "" && q.UserID != filter.UserID {
			continue
		}
		questions = append(questions, *q)
	}
	return questions, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string, _ ...core.DBExecutor) (question.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return *q, nil
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question, _ ...core.DBExecutor) (question.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	q.ID = uuid.New().String()
	repo.db.table[q.ID] = &q
	return q, nil
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q question.Question, _ ...core.DBExecutor) (question.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[q.ID]; !ok {
		return question.Question{}, question.ErrNotFound
	}
	repo.db.table[q.ID] = &q
	return q, nil
}
