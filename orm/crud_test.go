package orm

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/crudx/orm/internal/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Badge struct {
	Id   int16
	Name string
}

func TestInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("last insert id", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(SQLite3))
		mock.ExpectExec(`INSERT INTO "member" \("first_name", "age", "last_name"\) VALUES \(@FirstName, @Age, @LastName\);`).
			WithArgs(sql.Named("FirstName", "Tom"), sql.Named("Age", int8(18)), sql.Named("LastName", nil)).
			WillReturnResult(sqlmock.NewResult(42, 1))
		m := &Member{FirstName: "Tom", Age: 18}
		id, err := Insert[int64](ctx, db, m)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		// 自增主键会写回实体
		assert.Equal(t, int64(42), m.Id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("identity query", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO \[member\] .*;SELECT CAST\(SCOPE_IDENTITY\(\) AS BIGINT\) AS \[id\];`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
		m := &Member{FirstName: "Tom"}
		id, err := Insert[int](ctx, db, m)
		require.NoError(t, err)
		assert.Equal(t, 42, id)
		assert.Equal(t, int64(42), m.Id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uuid", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(MySQL))
		mock.ExpectExec("INSERT INTO `token` \\(`id`, `label`\\) VALUES \\(\\?, \\?\\);").
			WillReturnResult(sqlmock.NewResult(0, 1))
		tk := &Token{Label: "api"}
		id, err := Insert[uuid.UUID](ctx, db, tk)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		assert.Equal(t, tk.Id, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("string key", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(MySQL))
		mock.ExpectExec("INSERT INTO `slug` \\(`code`, `title`\\) VALUES \\(\\?, \\?\\);").
			WithArgs("go", "Go").
			WillReturnResult(sqlmock.NewResult(0, 1))
		id, err := Insert[string](ctx, db, &Slug{Code: "go", Title: "Go"})
		require.NoError(t, err)
		assert.Equal(t, "go", id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("predefined integer key", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(MySQL))
		mock.ExpectExec("INSERT INTO `member` \\(`id`, `first_name`, `age`, `last_name`\\) VALUES .*").
			WithArgs(int64(10), "Tom", int8(0), nil).
			WillReturnResult(sqlmock.NewResult(10, 1))
		id, err := Insert[int32](ctx, db, &Member{Id: 10, FirstName: "Tom"})
		require.NoError(t, err)
		assert.Equal(t, int32(10), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with table", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(SQLite3))
		mock.ExpectExec(`INSERT INTO "members_2024" .*`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		id, err := Insert[uint64](ctx, db, &Member{FirstName: "Tom"}, WithTable("members_2024"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returning", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(PostgreSQL))
		mock.ExpectQuery(`INSERT INTO "car" \("make_name", "model"\) VALUES \(\$1, \$2\) RETURNING "car_id";`).
			WithArgs("Honda", "Fit").
			WillReturnRows(sqlmock.NewRows([]string{"car_id"}).AddRow(int64(3)))
		c := &Car{Make: "Honda", Model: "Fit"}
		id, err := Insert[int64](ctx, db, c)
		require.NoError(t, err)
		assert.Equal(t, int64(3), id)
		assert.Equal(t, int64(3), c.CarId)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("identity overflow", func(t *testing.T) {
		testCases := []struct {
			name    string
			insert  func(db *DB) error
			wantErr error
		}{
			{
				name: "key field",
				insert: func(db *DB) error {
					_, err := Insert[int64](ctx, db, &Badge{Name: "gold"})
					return err
				},
				wantErr: errs.NewErrConvertValue(int64(40000), "int16", strconv.ErrRange),
			},
			{
				name: "return type",
				insert: func(db *DB) error {
					m := &Member{FirstName: "Tom"}
					_, err := Insert[uint16](ctx, db, m)
					// 溢出的时候不修改实体
					assert.Equal(t, int64(0), m.Id)
					return err
				},
				wantErr: errs.NewErrConvertValue(int64(40000), "uint16", strconv.ErrRange),
			},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				db, mock := newMockDB(t, DBWithDialect(SQLite3))
				mock.ExpectExec("INSERT INTO .*").WillReturnResult(sqlmock.NewResult(40000, 1))
				err := tc.insert(db)
				assert.Equal(t, tc.wantErr, err)
				assert.True(t, errors.Is(err, strconv.ErrRange))
				assert.NoError(t, mock.ExpectationsWereMet())
			})
		}
	})

	t.Run("exec error", func(t *testing.T) {
		db, mock := newMockDB(t, DBWithDialect(SQLite3))
		mock.ExpectExec("INSERT INTO .*").WillReturnError(errors.New("disk full"))
		m := &Member{FirstName: "Tom"}
		_, err := Insert[int64](ctx, db, m)
		assert.Equal(t, errors.New("disk full"), err)
		assert.Equal(t, int64(0), m.Id)
	})
}

func TestInsert_rejected(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	_, err := Insert[float64](ctx, db, &Member{})
	assert.True(t, errors.Is(err, ErrUnsupportedKeyType))

	_, err = Insert[any](ctx, db, &Member{})
	assert.True(t, errors.Is(err, ErrUnsupportedKeyType))

	_, err = Insert[int64, Member](ctx, db, nil)
	assert.Equal(t, errs.ErrInsertNilEntity, err)

	_, err = Insert[int64](ctx, db, &Enrollment{})
	assert.Equal(t, errs.ErrMultipleKeyFields, err)

	_, err = Insert[int64](ctx, db, &NoKey{})
	assert.Equal(t, errs.ErrNoKeyField, err)

	_, err = Insert[string](ctx, db, &Member{})
	assert.Equal(t, errs.NewErrKeyTypeMismatch("Id", "", reflect.TypeOf(int64(0))), err)

	_, err = Insert[int64](ctx, db, &Token{})
	assert.Error(t, err)

	// 不会执行任何 SQL
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEntity(t *testing.T) {
	db, mock := newMockDB(t, DBWithDialect(PostgreSQL))
	mock.ExpectExec(`INSERT INTO "car" \("car_id", "make_name", "model", "color"\) VALUES \(\$1, \$2, \$3, \$4\);`).
		WithArgs(int64(8), "Ford", "Focus", "grey").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := InsertEntity(context.Background(), db, &Car{CarId: 8, Make: "Ford", Model: "Focus", Color: "grey"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, errs.ErrInsertNilEntity, InsertEntity[Car](context.Background(), db, nil))
}

func TestGet(t *testing.T) {
	db, mock := newMockDB(t, DBWithDialect(SQLite3))
	mock.ExpectQuery(`SELECT "id","first_name","age","last_name" FROM "member" WHERE "id" = @Id;`).
		WithArgs(sql.Named("Id", 42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "age", "last_name"}).
			AddRow(int64(42), []byte("x"), int64(30), nil))
	mock.ExpectQuery(`SELECT .* FROM "member" WHERE "id" = @Id;`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	m, err := Get[Member](context.Background(), db, 42)
	require.NoError(t, err)
	assert.Equal(t, &Member{Id: 42, FirstName: "x", Age: 30}, m)

	_, err = Get[Member](context.Background(), db, 43)
	assert.Equal(t, ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetList(t *testing.T) {
	db, mock := newMockDB(t, DBWithDialect(MySQL))
	mock.ExpectQuery("SELECT `id`,`first_name`,`age`,`last_name` FROM `member` WHERE `age` = \\?;").
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "age"}).
			AddRow(int64(1), "Tom", int64(18)).
			AddRow(int64(2), "Anna", int64(18)))
	mock.ExpectQuery("SELECT `id`,`first_name`,`age`,`last_name` FROM `member`;").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := GetList[Member](context.Background(), db, map[string]any{"Age": 18})
	require.NoError(t, err)
	assert.Equal(t, []*Member{
		{Id: 1, FirstName: "Tom", Age: 18},
		{Id: 2, FirstName: "Anna", Age: 18},
	}, list)

	// nil 代表查询所有数据，没有数据的时候返回空切片
	list, err = GetList[Member](context.Background(), db, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListWhere(t *testing.T) {
	db, mock := newMockDB(t, DBWithDialect(PostgreSQL))
	mock.ExpectQuery(`SELECT .* FROM "member" WHERE age > \$1 ORDER BY age;`).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "age"}).AddRow(int64(3), int64(21)))

	list, err := GetListWhere[Member](context.Background(), db, "WHERE age > $1 ORDER BY age", []any{20})
	require.NoError(t, err)
	assert.Equal(t, []*Member{{Id: 3, Age: 21}}, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListPaged(t *testing.T) {
	db, mock := newMockDB(t, DBWithDialect(PostgreSQL))
	mock.ExpectQuery(`SELECT "id","first_name","age","last_name" FROM "member" WHERE age > \$1 ORDER BY "id" LIMIT 10 OFFSET \(\(2-1\) \* 10\);`).
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	list, err := GetListPaged[Member](context.Background(), db, 2, 10, "WHERE age > $1", "", []any{18})
	require.NoError(t, err)
	assert.Equal(t, []*Member{{Id: 11}}, list)

	_, err = GetListPaged[Member](context.Background(), db, 0, 10, "", "", nil)
	assert.Equal(t, ErrInvalidPageNumber, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE \[member\] SET \[first_name\] = @FirstName, \[age\] = @Age, \[last_name\] = @LastName WHERE \[id\] = @Id;`).
		WithArgs(sql.Named("FirstName", "Tom"), sql.Named("Age", int8(19)), sql.Named("LastName", nil), sql.Named("Id", int64(1))).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := Update(context.Background(), db, &Member{Id: 1, FirstName: "Tom", Age: 19})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, err = Update[Member](context.Background(), db, nil)
	assert.Equal(t, ErrNilEntity, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t, DBWithDialect(MySQL))
	mock.ExpectExec("DELETE FROM `member` WHERE `id` = \\?;").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `member` WHERE `id` = \\?;").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `member` WHERE `age` = \\?;").
		WithArgs(int8(90)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM `member` WHERE age > \\?;").
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := Delete(ctx, db, &Member{Id: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = DeleteByID[Member](ctx, db, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = DeleteList[Member](ctx, db, struct{ Age int8 }{Age: 90})
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)

	affected, err = DeleteListWhere[Member](ctx, db, "WHERE age > ?", []any{100})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	// 下面的调用都不会执行 SQL
	_, err = DeleteListWhere[Member](ctx, db, "age > 100", nil)
	assert.Equal(t, ErrDeleteWithoutWhere, err)
	_, err = DeleteList[Member](ctx, db, nil)
	assert.Equal(t, ErrNilFilter, err)
	_, err = Delete[Member](ctx, db, nil)
	assert.Equal(t, ErrNilEntity, err)
	_, err = DeleteByID[Enrollment](ctx, db, 1)
	assert.Equal(t, ErrMultipleKeyFields, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCount(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM \[member\];`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM \[member\] WHERE \[last_name\] IS NULL;`).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT COUNT\(1\) FROM \[member\] WHERE age > @Age;`).
		WithArgs(sql.Named("Age", 18)).
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(int64(5)))

	cnt, err := RecordCount[Member](ctx, db, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), cnt)

	cnt, err = RecordCount[Member](ctx, db, map[string]any{"LastName": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	cnt, err = RecordCountWhere[Member](ctx, db, "WHERE age > @Age", []any{sql.Named("Age", 18)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTimeout(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .*").
		WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err := Get[Member](context.Background(), db, 1, WithTimeout(10*time.Millisecond))
	assert.Error(t, err)
}
