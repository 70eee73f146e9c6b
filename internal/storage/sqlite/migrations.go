package sqlite

import (
	"fmt"
	"strings"
)

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations() error {
	// Databases created before themes were persisted lack user_state.theme
	if err := db.addColumn("user_state", "theme", "TEXT"); err != nil {
		return err
	}

	// Row timestamps arrived with the debounced saver
	if err := db.addColumn("user_state", "updated_at", "DATETIME"); err != nil {
		return err
	}
	if err := db.addColumn("task_buckets", "updated_at", "DATETIME"); err != nil {
		return err
	}

	return nil
}

func (db *DB) addColumn(table, column, decl string) error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for %s.%s: %w", table, column, err)
	}

	if count > 0 {
		return nil
	}

	db.log.WithField("column", table+"."+column).Info("running migration")

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
		return fmt.Errorf("adding %s column: %w", column, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	db.log.WithField("column", table+"."+column).Info("migration completed")
	return nil
}
