package inmemdb

import (
	"sync"

	"github.com/mrhat05/Doubtroom/core/question"
	"github.com/mrhat05/Doubtroom/core/user"
)

type (
	DB struct {
		user     *userTable
		question *questionTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	questionTable struct {
		mutex sync.RWMutex
		table map[string]*question.Question
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		question: &questionTable{table: make(map[string]*question.Question)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.question.mutex.Lock()
	db.question.table = make(map[string]*question.Question)
	db.question.mutex.Unlock()
}
