package org

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreFindByIDAssemblesLists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`select id, name, owner_id, created_at from organizations where id=$1`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "created_at"}).
			AddRow("org-1", "acme", "owner-1", created))
	mock.ExpectQuery(regexp.QuoteMeta(`select member_id from organization_members`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"member_id"}).AddRow("member-1").AddRow("member-2"))
	mock.ExpectQuery(regexp.QuoteMeta(`select server_id from organization_servers`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"server_id"}).AddRow("srv-1"))

	store := NewPGStore(db)
	o, err := store.FindByID(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(o.MemberIDs) != 2 || !o.HasServer("srv-1") {
		t.Fatalf("lists not assembled: %+v", o)
	}
	if !o.IsMemberOrOwner("owner-1") || !o.IsMemberOrOwner("member-2") || o.IsMemberOrOwner("srv-1") {
		t.Fatalf("membership resolution broken: %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`from organizations where id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owner_id", "created_at"}))

	store := NewPGStore(db)
	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPGStoreHasAccessToServerSingleQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`select exists`).
		WithArgs("srv-1", "member-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPGStore(db)
	ok, err := store.HasAccessToServer(context.Background(), "srv-1", "member-1")
	if err != nil {
		t.Fatalf("has access: %v", err)
	}
	if !ok {
		t.Fatal("expected access")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreAddMemberTolerantOfDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`insert into organization_members(organization_id, member_id) values($1,$2) on conflict do nothing`)).
		WithArgs("org-1", "member-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.AddMember(context.Background(), "org-1", "member-1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
