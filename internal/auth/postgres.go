package auth

import (
	"context"
	"database/sql"

	"warden.org/internal/ids"
)

var (
	_ UserStore       = (*PGUserStore)(nil)
	_ PermissionStore = (*PGPermissionStore)(nil)
)

const userColumns = `id, group_name, username, auth_kind, email, password_hash, avatar, created_at`

// PGUserStore implements UserStore using PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

func (s *PGUserStore) Insert(ctx context.Context, u *User) error {
	if u.UniqueID == "" {
		u.UniqueID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, group_name, username, auth_kind, email, password_hash, avatar, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.UniqueID, string(u.Group), nullable(u.Username), u.Authentication.Kind,
		nullable(u.Authentication.Email), nullable(u.Authentication.PasswordHash),
		nullable(u.Authentication.Avatar), u.CreatedAt,
	)
	return err
}

func (s *PGUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return s.scanUser(ctx, row)
}

func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return s.scanUser(ctx, row)
}

func (s *PGUserStore) FindByToken(ctx context.Context, token string) (*User, error) {
	// Any token in the history resolves the user, not just the latest.
	row := s.db.QueryRowContext(ctx,
		`select u.id, u.group_name, u.username, u.auth_kind, u.email, u.password_hash, u.avatar, u.created_at
		 from users u
		 join logins l on l.user_id = u.id
		 where l.token=$1`, token)
	return s.scanUser(ctx, row)
}

func (s *PGUserStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where id=$1)`, id).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) AppendLogin(ctx context.Context, userID string, l Login) error {
	_, err := s.db.ExecContext(ctx,
		`insert into logins(user_id, ip, occurred_at, method, token) values($1,$2,$3,$4,$5)`,
		userID, l.IP, l.OccurredAt, l.Method, l.Token,
	)
	return err
}

func (s *PGUserStore) UpdateAuthentication(ctx context.Context, userID string, a Authentication) error {
	res, err := s.db.ExecContext(ctx,
		`update users set auth_kind=$2, email=$3, password_hash=$4, avatar=$5 where id=$1`,
		userID, a.Kind, nullable(a.Email), nullable(a.PasswordHash), nullable(a.Avatar),
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGUserStore) UpdateUsername(ctx context.Context, userID, username string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set username=$2 where id=$1`, userID, username)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGUserStore) Delete(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`delete from logins where user_id=$1`,
		`delete from user_permissions where user_id=$1`,
		`delete from users where id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGUserStore) HasPermission(ctx context.Context, userID, permissionID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from user_permissions where user_id=$1 and permission_id=$2)`,
		userID, permissionID).Scan(&exists)
	return exists, err
}

func (s *PGUserStore) GrantPermission(ctx context.Context, userID, permissionID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_permissions(user_id, permission_id) values($1,$2) on conflict do nothing`,
		userID, permissionID,
	)
	return err
}

func (s *PGUserStore) RevokePermission(ctx context.Context, userID, permissionID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from user_permissions where user_id=$1 and permission_id=$2`,
		userID, permissionID,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PGUserStore) scanUser(ctx context.Context, row rowScanner) (*User, error) {
	var (
		u                    User
		username, email      sql.NullString
		passwordHash, avatar sql.NullString
	)
	err := row.Scan(&u.UniqueID, (*string)(&u.Group), &username, &u.Authentication.Kind,
		&email, &passwordHash, &avatar, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Username = username.String
	u.Authentication.Username = username.String
	u.Authentication.Email = email.String
	u.Authentication.PasswordHash = passwordHash.String
	u.Authentication.Avatar = avatar.String

	if u.Logins, err = s.loadLogins(ctx, u.UniqueID); err != nil {
		return nil, err
	}
	if u.Permissions, err = s.loadPermissions(ctx, u.UniqueID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGUserStore) loadLogins(ctx context.Context, userID string) ([]Login, error) {
	rows, err := s.db.QueryContext(ctx,
		`select ip, occurred_at, method, token from logins where user_id=$1 order by seq asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logins []Login
	for rows.Next() {
		var l Login
		if err := rows.Scan(&l.IP, &l.OccurredAt, &l.Method, &l.Token); err != nil {
			return nil, err
		}
		logins = append(logins, l)
	}
	return logins, rows.Err()
}

func (s *PGUserStore) loadPermissions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select permission_id from user_permissions where user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		perms = append(perms, id)
	}
	return perms, rows.Err()
}

// PGPermissionStore implements PermissionStore using PostgreSQL.
type PGPermissionStore struct {
	db *sql.DB
}

func NewPGPermissionStore(db *sql.DB) *PGPermissionStore {
	return &PGPermissionStore{db: db}
}

func (s *PGPermissionStore) Ensure(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := s.db.ExecContext(ctx,
			`insert into permissions(id, name) values($1,$2) on conflict (name) do nothing`,
			ids.New(), name,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PGPermissionStore) IDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`select id from permissions where name=$1`, name).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *PGPermissionStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from permissions where id=$1)`, id).Scan(&exists)
	return exists, err
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
