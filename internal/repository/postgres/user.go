package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, full_name, email, password_hash, role, address, phone`

const createUser = `-- name: CreateUser
INSERT INTO users (id, created_at, full_name, email, password_hash, role, address, phone)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns

func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createUser,
		u.ID, u.CreatedAt, u.FullName, u.Email, u.HashedPassword, string(u.Role), u.Address, u.Phone,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case pgErrorCode(err) == pgerrcode.UniqueViolation:
		return user, apperrors.ErrUserAlreadyExists
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE lower(email) = lower($1)
`

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET full_name = $2, email = $3, address = $4, phone = $5
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) Update(ctx context.Context, u models.User) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUser, u.ID, u.FullName, u.Email, u.Address, u.Phone)
	user, err := collectUser(rows)
	if pgErrorCode(err) == pgerrcode.UniqueViolation {
		return user, apperrors.ErrUserAlreadyExists
	}
	return user, err
}

func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hashedPassword)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	switch {
	case pgErrorCode(err) == pgerrcode.ForeignKeyViolation:
		return apperrors.ErrUserHasAccounts
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

var userSortColumns = map[string]string{
	models.SortByFullName:  "full_name",
	models.SortByEmail:     "email",
	models.SortByCreatedAt: "created_at",
}

func (r *UserRepo) List(ctx context.Context, f models.UserFilter) (models.Page[models.User], error) {
	f.Page = f.Page.Normalize()
	page := models.Page[models.User]{Page: f.Page.Page, Size: f.Page.Size}

	if f.SortBy == "" {
		f.SortBy = models.SortByFullName
	}
	column, ok := userSortColumns[f.SortBy]
	if !ok {
		return page, apperrors.ErrSortInvalid
	}
	direction := "ASC"
	if f.Desc {
		direction = "DESC"
	}

	var (
		a     args
		conds []string
	)
	if f.Role != "" {
		conds = append(conds, "role = "+a.add(string(f.Role)))
	}
	if f.Keyword != "" {
		p := a.add(containsPattern(f.Keyword))
		conds = append(conds, "(full_name ILIKE "+p+" OR email ILIKE "+p+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM users"+where, a...).Scan(&page.TotalItems)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	query := "SELECT " + userColumns + " FROM users" + where +
		" ORDER BY " + column + " " + direction + ", id " + direction + " LIMIT " + a.add(f.Page.Size) + " OFFSET " + a.add(f.Page.Offset())
	rows, _ := r.DB.Query(ctx, query, a...)
	page.Items, err = pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	return page, nil
}

func (r *UserRepo) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.CreatedAt, &u.FullName, &u.Email, &u.HashedPassword, &role, &u.Address, &u.Phone)
	u.Role = models.Role(role)
	return u, err
}
