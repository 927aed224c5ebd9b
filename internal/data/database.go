package data

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Chaves persistidas
const (
	HistoryKey = "soil_history"
	CropKey    = "soil_crop"
)

// Store armazenamento durável chave-valor
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Database armazenamento chave-valor sobre SQLite ou MySQL
type Database struct {
	db     *sql.DB
	driver string
	dsn    string
}

// NewDatabase abre o banco e garante o schema. driver é "sqlite" ou "mysql".
func NewDatabase(driver, dsn string) (*Database, error) {
	switch driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	d := &Database{driver: driver, dsn: dsn}
	if err := d.connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if err := d.initTables(); err != nil {
		d.db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	return d, nil
}

// connect conecta ao banco de dados
func (d *Database) connect() error {
	var err error
	d.db, err = sql.Open(d.driver, d.dsn)
	if err != nil {
		return err
	}

	if d.driver == "sqlite" {
		// SQLite aceita um único escritor
		d.db.SetMaxOpenConns(1)
		d.db.SetMaxIdleConns(1)
	}

	return d.db.Ping()
}

// initTables cria a tabela chave-valor
func (d *Database) initTables() error {
	query := `CREATE TABLE IF NOT EXISTS kv_store (
			store_key TEXT PRIMARY KEY,
			store_value TEXT NOT NULL,
			updated_at INTEGER DEFAULT (strftime('%s','now'))
		)`
	if d.driver == "mysql" {
		query = `CREATE TABLE IF NOT EXISTS kv_store (
			store_key VARCHAR(191) PRIMARY KEY,
			store_value LONGTEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`
	}

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("create kv_store table: %w", err)
	}
	return nil
}

// Get busca o valor de uma chave
func (d *Database) Get(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow("SELECT store_value FROM kv_store WHERE store_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set grava o valor de uma chave
func (d *Database) Set(key, value string) error {
	query := `INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)
		ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value,
		updated_at = strftime('%s','now')`
	if d.driver == "mysql" {
		query = `INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE store_value = VALUES(store_value)`
	}

	_, err := d.db.Exec(query, key, value)
	return err
}

// Delete remove uma chave
func (d *Database) Delete(key string) error {
	_, err := d.db.Exec("DELETE FROM kv_store WHERE store_key = ?", key)
	return err
}

// Close fecha a conexão com o banco
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// MemoryStore armazenamento volátil, usado em testes e no modo offline da CLI
type MemoryStore struct {
	values map[string]string
	mutex  sync.RWMutex
}

// NewMemoryStore cria armazenamento em memória
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
