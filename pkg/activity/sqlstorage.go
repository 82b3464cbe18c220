package activity

import (
	"database/sql"
	"fmt"

	// postgres driver
	_ "github.com/lib/pq"
)

const createEventsTable = `CREATE TABLE IF NOT EXISTS %s (
	event_key TEXT PRIMARY KEY,
	event     TEXT NOT NULL
)`

// SQLEventStorage stores events in a postgres table.
type SQLEventStorage struct {
	table string
	db    *sql.DB
}

// OpenSQLEventStorage connects to postgres with dsn and creates table if it does not exist.
// table is used verbatim in statements and must come from configuration, never from a request.
func OpenSQLEventStorage(dsn, table string) (EventStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to activity database: %w", err)
	}

	store, err := NewSQLEventStorage(table, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLEventStorage(table string, db *sql.DB) (EventStorage, error) {
	if _, err := db.Exec(fmt.Sprintf(createEventsTable, table)); err != nil {
		return nil, fmt.Errorf("creating activity table %s: %w", table, err)
	}

	return &SQLEventStorage{
		table: table,
		db:    db,
	}, nil
}

func (es *SQLEventStorage) Add(key string, event []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (event_key, event) VALUES ($1, $2)
		ON CONFLICT (event_key) DO UPDATE SET event = EXCLUDED.event`, es.table)

	_, err := es.db.Exec(query, key, string(event))
	return err
}

func (es *SQLEventStorage) Each(handler func(string, []byte) error) error {
	rows, err := es.db.Query(fmt.Sprintf(`SELECT event_key, event FROM %s ORDER BY event_key`, es.table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, event string
		if err := rows.Scan(&key, &event); err != nil {
			return err
		}
		if err := handler(key, []byte(event)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (es *SQLEventStorage) Close() error {
	return es.db.Close()
}
