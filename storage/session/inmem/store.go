package inmemsession

import (
	"context"
	"sync"

	"github.com/mrhat05/Doubtroom/core/session"
)

type store struct {
	mutex sync.RWMutex
	s     session.Session
}

var _ session.Store = (*store)(nil) // interface compliance check

func NewStore() session.Store {
	return &store{}
}

func (st *store) Read(_ context.Context) (session.Session, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return copySession(st.s), nil
}

func (st *store) Write(_ context.Context, s session.Session) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.s = copySession(s)
	return nil
}

func (st *store) Clear(_ context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.s = session.Session{}
	return nil
}

// copySession detaches the stored UserData from the caller's.
func copySession(s session.Session) session.Session {
	if s.UserData != nil {
		ud := *s.UserData
		s.UserData = &ud
	}
	return s
}
