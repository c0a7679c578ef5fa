package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Migrator struct {
	store *SqlStore
	log   *zap.Logger
}

func NewMigrator(store *SqlStore, log *zap.Logger) *Migrator {
	return &Migrator{
		store: store,
		log:   log,
	}
}

// Up applies every script of source whose version is above the database user_version.
// Scripts are named like "0002_migration_name.sql".
func (m *Migrator) Up(ctx context.Context, source fs.FS) error {
	list, err := fs.ReadDir(source, ".")
	if err != nil {
		return err
	}

	var scripts []string
	for _, f := range list {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".sql") {
			scripts = append(scripts, f.Name())
		}
	}
	if len(scripts) == 0 {
		return nil
	}
	sort.Strings(scripts)

	current, err := m.store.userVersion()
	if err != nil {
		return err
	}

	final, err := scriptVersion(scripts[len(scripts)-1])
	if err != nil {
		return err
	}

	if final > current {
		m.log.Info("Bringing up metadata migrations", zap.Int("migration_count", final-current))
	}

	for _, n := range scripts {
		v, err := scriptVersion(n)
		if err != nil {
			return err
		}

		// re-read on every iteration so an out of order script is never applied after a newer one
		c, err := m.store.userVersion()
		if err != nil {
			return err
		}

		if v > c {
			m.log.Debug("Executing metadata migration", zap.String("migration_name", n))
			mBytes, err := fs.ReadFile(source, n)
			if err != nil {
				return err
			}

			if err := m.store.execTrans(ctx, string(mBytes), v); err != nil {
				return fmt.Errorf("migration %s: %w", n, err)
			}
		}
	}

	return nil
}

// extract the version number as an integer from a file named like "0002_migration_name.sql"
func scriptVersion(filename string) (int, error) {
	vString := strings.Split(filename, "_")[0]
	vInt, err := strconv.Atoi(vString)
	if err != nil {
		return 0, err
	}

	return vInt, nil
}
