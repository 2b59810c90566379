package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Username, &u.Password)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func (b *Backend) GetUser(ctx context.Context, id int64) (*types.User, error) {
	row := b.db.QueryRowContext(ctx, "SELECT id, username, password FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		return nil, types.Backend("get user", err)
	}
	return u, nil
}

func (b *Backend) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	row := b.db.QueryRowContext(ctx, "SELECT id, username, password FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if err != nil {
		return nil, types.Backend("get user by username", err)
	}
	return u, nil
}

// CreateUser inserts a user. A taken username yields types.ErrDuplicate.
func (b *Backend) CreateUser(ctx context.Context, in types.NewUser) (*types.User, error) {
	var created *types.User
	err := b.withTx(ctx, "create user", func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ?", in.Username).Scan(&one)
		if err == nil {
			return types.ErrDuplicate
		}
		if err != sql.ErrNoRows {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, password) VALUES (?, ?)", in.Username, in.Password)
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created = &types.User{ID: id, Username: in.Username, Password: in.Password}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
