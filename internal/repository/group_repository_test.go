package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoo-app/scoo-api/internal/domain"
)

var groupRowColumns = []string{
	"id", "name", "description", "parent_id", "active", "created_by", "updated_by", "created_at", "updated_at",
}

const (
	groupA = "0b7f6a43-2d1c-4f7e-8c55-9a1e3f2b4c01"
	groupB = "0b7f6a43-2d1c-4f7e-8c55-9a1e3f2b4c02"
)

func TestGroupRepositoryListPages(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		offset  int
		limit   int
		total   int
		rows    [][]any
		wantIDs []string
	}{
		{
			name: "first page", offset: 0, limit: 2, total: 3,
			rows: [][]any{
				{groupA, "Alpha", "", (*string)(nil), true, (*string)(nil), (*string)(nil), now, now},
				{groupB, "Beta", "", strPtr(groupA), true, (*string)(nil), (*string)(nil), now, now},
			},
			wantIDs: []string{groupA, groupB},
		},
		{name: "past the end", offset: 20, limit: 10, total: 3, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery(`SELECT COUNT\(\*\) FROM groups`).
				WillReturnRows(mock.NewRows([]string{"count"}).AddRow(tt.total))
			rows := mock.NewRows(groupRowColumns)
			for _, r := range tt.rows {
				rows.AddRow(r...)
			}
			mock.ExpectQuery(`FROM groups ORDER BY name OFFSET \$1 LIMIT \$2`).
				WithArgs(tt.offset, tt.limit).
				WillReturnRows(rows)

			groups, total, err := NewGroupRepository(mock).List(context.Background(), tt.offset, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			ids := make([]string, 0, len(groups))
			for _, g := range groups {
				ids = append(ids, g.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestGroupRepositoryUpdateMissingRow(t *testing.T) {
	mock := newMock(t)
	repo := NewGroupRepository(mock)

	mock.ExpectQuery(`UPDATE groups SET .* WHERE id=\$6\s+RETURNING updated_at`).
		WithArgs("Choir", "", (*string)(nil), true, strPtr(userID), groupA).
		WillReturnRows(mock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &domain.Group{ID: groupA, Name: "Choir", Active: true, UpdatedBy: strPtr(userID)})
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	err = repo.Update(context.Background(), &domain.Group{ID: "42", Name: "Choir"})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestGroupRepositoryCreateKeepsParent(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs(pgxmock.AnyArg(), "Choir", "Singers", strPtr(groupA), true, strPtr(userID)).
		WillReturnRows(mock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	group := &domain.Group{Name: "Choir", Description: "Singers", ParentID: strPtr(groupA), Active: true, CreatedBy: strPtr(userID)}
	require.NoError(t, NewGroupRepository(mock).Create(context.Background(), group))
	assert.NotEmpty(t, group.ID)
	assert.Equal(t, now, group.CreatedAt)
}
