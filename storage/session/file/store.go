package filesession

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core/session"
)

type store struct {
	mutex sync.Mutex
	path  string
}

var _ session.Store = (*store)(nil) // interface compliance check

// NewStore keeps the session as JSON in the file at path. Parent directories are created on write.
func NewStore(path string) session.Store {
	return &store{path: path}
}

func (st *store) Read(_ context.Context) (session.Session, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.Session{}, nil
		}
		return session.Session{}, errors.Wrap(err, "reading session")
	}
	s, err := session.Unmarshal(data)
	return s, errors.Wrap(err, "decoding session")
}

// Write replaces the file atomically: the session is written to a temp file which is then renamed.
func (st *store) Write(_ context.Context, s session.Session) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	data, err := session.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	dir := filepath.Dir(st.path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "creating session dir")
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op once renamed

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing session")
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "syncing session")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing session")
	}
	return errors.Wrap(os.Rename(tmp.Name(), st.path), "replacing session")
}

func (st *store) Clear(_ context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing session")
	}
	return nil
}
