package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core"
	"github.com/mrhat05/Doubtroom/core/user"
)

var userColumns = []string{
	"id", "email", "password_hash", "display_name", "photo_url", "photo_id", "provider",
	"is_active", "is_admin", "email_verified",
	"role", "college_name", "branch", "study_type", "phone", "gender", "dob", "profile_completed",
	"otp_code", "otp_expires_at", "otp_attempts", "refresh_token", "password_recovery_done",
	"star_dust_points", "current_streak", "longest_streak", "last_streak_date",
	"created_at", "updated_at", "last_login",
}

var (
	userSelect = `SELECT ` + strings.Join(userColumns, ", ") + ` FROM "user"`
	userInsert = `INSERT INTO "user" (` + strings.Join(userColumns, ", ") + `) VALUES (:` + strings.Join(userColumns, ", :") + `)`
	userUpdate = `UPDATE "user" SET ` + setClause(userColumns[1:]) + ` WHERE id = :id`
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := `SELECT COUNT(*) FROM "user" WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}

	db := repo.getExec(exec)
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var cnt int
	if err = db.GetContext(ctx, &cnt, db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if cnt > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	if _, err := repo.getExec(exec).NamedExecContext(ctx, userInsert, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			where = append(where, "(display_name ILIKE ? OR email ILIKE ?)")
			search := "%" + filter.Search + "%"
			args = append(args, search, search)
		}
		if len(filter.Roles) > 0 {
			where = append(where, "role IN (?)")
			args = append(args, filter.Roles)
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
		if filter.IsAdmin != nil {
			where = append(where, "is_admin = ?")
			args = append(args, *filter.IsAdmin)
		}
		if filter.EmailVerified != nil {
			where = append(where, "email_verified = ?")
			args = append(args, *filter.EmailVerified)
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, "created_at >= ?")
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, "created_at <= ?")
			args = append(args, filter.CreatedTo.UTC())
		}
	}

	query := userSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if len(ordering) > 0 {
		orderBy := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderBy = append(orderBy, ord.String()) // fields are whitelisted by user.CleanOrdering
		}
		query += " ORDER BY " + strings.Join(orderBy, ", ")
	}

	db := repo.getExec(exec)
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	users := make([]user.User, 0)
	if err = db.SelectContext(ctx, &users, db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var (
		query string
		arg   interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		query, arg = userSelect+" WHERE id = $1", filter.ID
	case filter.Email != "":
		query, arg = userSelect+" WHERE email = $1", filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.getExec(exec).GetContext(ctx, &usr, query, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, userUpdate, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := repo.getExec(exec)
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting users")
}

func (repo userRepository) ResetBrokenStreaks(ctx context.Context, before time.Time, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE "user" SET current_streak = 0
		 WHERE current_streak > 0 AND (last_streak_date IS NULL OR last_streak_date < $1)`,
		before.UTC(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "resetting streaks")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "resetting streaks")
}

func setClause(columns []string) string {
	sets := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == "created_at" {
			continue
		}
		sets = append(sets, col+" = :"+col)
	}
	return strings.Join(sets, ", ")
}
