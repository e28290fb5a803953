package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/awschultz/locationmodel/common/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier returns canned rows and records the SQL it was given
type fakeQuerier struct {
	rows    [][]any
	row     []any
	rowErr  error
	queries []string
	args    [][]any
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return &fakeRows{data: f.rows, pos: -1}, nil
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return &fakeRow{values: f.row, err: f.rowErr}
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos])
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return errors.New("column count mismatch")
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func strp(s string) *string { return &s }
func int64p(v int64) *int64 { return &v }

func TestLocationRepository_QueriesUseSchema(t *testing.T) {
	q := buildLocationQueries("plant")

	for _, sql := range []string{q.model, q.children, q.byID, q.childrenFromName, q.rootsByName} {
		assert.Contains(t, sql, `plant."Location"`)
	}
	assert.Contains(t, q.model, `plant."LocationTypeDefinition"`)
}

func TestLocationRepository_ListChildren(t *testing.T) {
	fq := &fakeQuerier{rows: [][]any{
		{int64(4), strp("Line B"), int64p(2), int64p(1)},
		{int64(5), strp("Line A"), nil, int64p(1)},
	}}
	repo := NewLocationRepository(fq, "core")

	children, err := repo.ListChildren(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, children, 2)

	assert.Equal(t, int64(4), children[0].LocationID)
	assert.Equal(t, int64(2), *children[0].OrderNumber)
	assert.Nil(t, children[1].OrderNumber)
	assert.Equal(t, "Line A", children[1].DisplayName())
	assert.Equal(t, []any{int64(1)}, fq.args[0])
	assert.True(t, strings.Contains(fq.queries[0], `"ParentLocationID" = $1`))
}

func TestLocationRepository_ListLocations(t *testing.T) {
	fq := &fakeQuerier{rows: [][]any{
		{int64p(1), strp("Plant"), nil, strp("PL"), nil, strp("factory"), nil,
			strp("Site"), int64p(3), strp("Site Definition"), int64p(9), strp("Types/Site"), strp("Views/Site"), strp("admin"), nil},
	}}
	repo := NewLocationRepository(fq, "core")

	rows, err := repo.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, int64(1), *rows[0].LocationID)
	assert.Equal(t, "Views/Site", *rows[0].IgnitionTemplatePath)
	assert.Nil(t, rows[0].ParentLocationID)
}

func TestLocationRepository_GetByID(t *testing.T) {
	fq := &fakeQuerier{row: []any{int64(4), int64p(2), strp("Line 1")}}
	repo := NewLocationRepository(fq, "core")

	ref, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Line 1", ref.Name)
	assert.True(t, ref.HasParent())
}

func TestLocationRepository_GetByIDNotFound(t *testing.T) {
	fq := &fakeQuerier{rowErr: pgx.ErrNoRows}
	repo := NewLocationRepository(fq, "core")

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrLocationNotFound)
}
