package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/coderi421/crudx/config"
	"github.com/coderi421/crudx/orm"
	"github.com/coderi421/crudx/orm/middlewares/querylog"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Member struct {
	Id        int64
	FirstName string
	LastName  sql.NullString
	Age       int
	Email     string    `orm:"column=email_address"`
	CreatedAt time.Time `orm:"ignore_update"`
	// Nickname 只在内存里使用
	Nickname string `orm:"-"`
}

const createMemberSQLite = `CREATE TABLE IF NOT EXISTS "member" (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"first_name" TEXT NOT NULL,
	"last_name" TEXT,
	"age" INTEGER NOT NULL,
	"email_address" TEXT NOT NULL,
	"created_at" DATETIME NOT NULL
)`

func newRootCmd() *cobra.Command {
	var cfgPath string
	var verbose bool
	cmd := &cobra.Command{
		Use:          "crud-demo",
		Short:        "演示按照约定生成的增删改查",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			defer func() {
				_ = logger.Sync()
			}()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			db, err := cfg.Open(orm.DBWithMiddlewares(
				querylog.NewBuilder().Logger(logger).SlowThreshold(cfg.SlowThreshold).Build(),
			))
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()
			if db.Dialect() == orm.SQLite3 {
				if _, err = orm.RawQuery[Member](db, createMemberSQLite).Exec(cmd.Context()).RowsAffected(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), db, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径，为空的时候使用内存中的 SQLite")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "输出执行的 SQL")
	return cmd
}

func run(ctx context.Context, db *orm.DB, out io.Writer) error {
	now := time.Now().UTC().Truncate(time.Second)
	members := []*Member{
		{FirstName: "Tom", Age: 18, Email: "tom@example.com", CreatedAt: now},
		{FirstName: "Anna", LastName: sql.NullString{String: "Lee", Valid: true}, Age: 25,
			Email: "anna@example.com", CreatedAt: now},
		{FirstName: "Bob", Age: 40, Email: "bob@example.com", CreatedAt: now},
	}
	for _, m := range members {
		id, err := orm.Insert[int64](ctx, db, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "inserted %s with id %d\n", m.FirstName, id)
	}

	m, err := orm.Get[Member](ctx, db, members[1].Id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "get %d: %s %s <%s>\n", m.Id, m.FirstName, m.LastName.String, m.Email)

	m.Age++
	if _, err = orm.Update(ctx, db, m); err != nil {
		return err
	}

	list, err := orm.GetList[Member](ctx, db, struct{ Age int }{Age: 26})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "age 26: %d\n", len(list))

	page, err := orm.GetListPaged[Member](ctx, db, 1, 2, "", "", nil)
	if err != nil {
		return err
	}
	for _, p := range page {
		fmt.Fprintf(out, "page 1: %s\n", p.FirstName)
	}

	cnt, err := orm.RecordCount[Member](ctx, db, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "count: %d\n", cnt)

	err = db.DoTx(ctx, func(ctx context.Context, tx *orm.Tx) error {
		_, err := orm.DeleteByID[Member](ctx, tx, members[0].Id)
		return err
	}, nil)
	if err != nil {
		return err
	}
	cnt, err = orm.RecordCount[Member](ctx, db, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "count after delete: %d\n", cnt)
	return nil
}
