package redissession

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/session"
)

// hash fields
const (
	fieldAuthStatus       = "auth_status"
	fieldUserData         = "user_data"
	fieldProfileCompleted = "profile_completed"
	fieldToken            = "token"
)

type store struct {
	rdb *redis.Client
	key string
}

var _ session.Store = (*store)(nil) // interface compliance check

func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// NewStore keeps the session in the redis hash at key.
func NewStore(rdb *redis.Client, key string) session.Store {
	return &store{rdb: rdb, key: key}
}

func (st *store) Read(ctx context.Context) (session.Session, error) {
	fields, err := st.rdb.HGetAll(ctx, st.key).Result()
	if err != nil {
		return session.Session{}, errors.Wrap(err, "reading session")
	}
	if len(fields) == 0 {
		return session.Session{}, nil
	}

	s := session.Session{Token: fields[fieldToken]}
	s.AuthStatus, _ = strconv.ParseBool(fields[fieldAuthStatus])
	s.ProfileCompleted, _ = strconv.ParseBool(fields[fieldProfileCompleted])
	if s.UserData, err = session.UnmarshalUserData([]byte(fields[fieldUserData])); err != nil {
		return session.Session{}, errors.Wrap(err, "decoding user data")
	}
	return s, nil
}

// Write replaces the whole hash in a single MULTI/EXEC transaction.
func (st *store) Write(ctx context.Context, s session.Session) error {
	userData, err := session.MarshalUserData(s.UserData)
	if err != nil {
		return errors.Wrap(err, "encoding user data")
	}
	_, err = st.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, st.key)
		pipe.HSet(ctx, st.key,
			fieldAuthStatus, strconv.FormatBool(s.AuthStatus),
			fieldUserData, string(userData),
			fieldProfileCompleted, strconv.FormatBool(s.ProfileCompleted),
			fieldToken, s.Token,
		)
		return nil
	})
	return errors.Wrap(err, "writing session")
}

func (st *store) Clear(ctx context.Context) error {
	return errors.Wrap(st.rdb.Del(ctx, st.key).Err(), "clearing session")
}
