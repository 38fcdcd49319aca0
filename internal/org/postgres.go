package org

import (
	"context"
	"database/sql"

	"warden.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, o *Organization) error {
	if o.UniqueID == "" {
		o.UniqueID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into organizations(id, name, owner_id, created_at) values($1,$2,$3,$4)`,
		o.UniqueID, o.Name, o.OwnerID, o.CreatedAt,
	)
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, owner_id, created_at from organizations where id=$1`, id)
	var o Organization
	if err := row.Scan(&o.UniqueID, &o.Name, &o.OwnerID, &o.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var err error
	if o.MemberIDs, err = s.loadList(ctx,
		`select member_id from organization_members where organization_id=$1`, o.UniqueID); err != nil {
		return nil, err
	}
	if o.ServerIDs, err = s.loadList(ctx,
		`select server_id from organization_servers where organization_id=$1`, o.UniqueID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PGStore) Update(ctx context.Context, id string, upd Update) error {
	if upd.Name != nil {
		if _, err := s.db.ExecContext(ctx,
			`update organizations set name=$2 where id=$1`, id, *upd.Name); err != nil {
			return err
		}
	}
	if upd.OwnerID != nil {
		if _, err := s.db.ExecContext(ctx,
			`update organizations set owner_id=$2 where id=$1`, id, *upd.OwnerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`delete from organization_members where organization_id=$1`,
		`delete from organization_servers where organization_id=$1`,
		`delete from organizations where id=$1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGStore) AddMember(ctx context.Context, orgID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into organization_members(organization_id, member_id) values($1,$2) on conflict do nothing`,
		orgID, memberID,
	)
	return err
}

func (s *PGStore) RemoveMember(ctx context.Context, orgID, memberID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from organization_members where organization_id=$1 and member_id=$2`,
		orgID, memberID,
	)
	return err
}

func (s *PGStore) AddServer(ctx context.Context, orgID, serverID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into organization_servers(organization_id, server_id) values($1,$2) on conflict do nothing`,
		orgID, serverID,
	)
	return err
}

func (s *PGStore) RemoveServer(ctx context.Context, orgID, serverID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from organization_servers where organization_id=$1 and server_id=$2`,
		orgID, serverID,
	)
	return err
}

func (s *PGStore) HasAccessToServer(ctx context.Context, serverID, actorID string) (bool, error) {
	// Single conjunctive probe: an organization must both carry the
	// server and reach the actor as owner or member.
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(
		   select 1 from organization_servers srv
		   join organizations o on o.id = srv.organization_id
		   where srv.server_id=$1
		     and (o.owner_id=$2 or exists(
		       select 1 from organization_members m
		       where m.organization_id=o.id and m.member_id=$2))
		 )`, serverID, actorID).Scan(&exists)
	return exists, err
}

func (s *PGStore) ListForActor(ctx context.Context, actorID string) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id from organizations o
		 where o.owner_id=$1 or exists(
		   select 1 from organization_members m
		   where m.organization_id=o.id and m.member_id=$1)
		 order by o.created_at asc`, actorID)
	if err != nil {
		return nil, err
	}
	orgIDs, err := collect(rows)
	if err != nil {
		return nil, err
	}

	res := []*Organization{}
	for _, id := range orgIDs {
		o, err := s.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, nil
}

func (s *PGStore) loadList(ctx context.Context, query, orgID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
