package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// startAtLayout задает формат хранения orders.start_at. Всегда UTC ("Z"),
// поэтому лексикографический порядок совпадает с хронологическим.
const startAtLayout = "2006-01-02T15:04:05Z"

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Одно соединение: сериализует доступ и избавляет от SQLITE_BUSY,
	// уникальный индекс на start_at при этом остаётся последним арбитром.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("База данных инициализирована")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица пользователей
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            tg_id INTEGER UNIQUE NOT NULL,
            tg_nickname TEXT NOT NULL,
            personal_discount TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица записей; уникальность start_at защищает от двойного брони
		`CREATE TABLE IF NOT EXISTS orders (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            tattoo_id INTEGER,
            sessions INTEGER,
            price INTEGER,
            start_at TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_start_at ON orders(start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,

		// Исключения расписания
		`CREATE TABLE IF NOT EXISTS day_off (
            date TEXT PRIMARY KEY,
            reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS blocked_slot (
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (date, time)
        )`,

		// Каталог ценообразования
		`CREATE TABLE IF NOT EXISTS pricing_config (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT,
            active BOOLEAN NOT NULL DEFAULT 0,
            base_price INTEGER NOT NULL DEFAULT 0,
            min_price INTEGER NOT NULL DEFAULT 0,
            rounding_policy TEXT NOT NULL DEFAULT 'round',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS pricing_style_coefficient (
            pricing_config_id INTEGER NOT NULL REFERENCES pricing_config(id),
            style_id INTEGER NOT NULL,
            coefficient TEXT NOT NULL,
            UNIQUE (pricing_config_id, style_id)
        )`,
		`CREATE TABLE IF NOT EXISTS pricing_body_zone_coefficient (
            pricing_config_id INTEGER NOT NULL REFERENCES pricing_config(id),
            body_zone TEXT NOT NULL,
            coefficient TEXT NOT NULL,
            UNIQUE (pricing_config_id, body_zone)
        )`,
		`CREATE TABLE IF NOT EXISTS discounts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT,
            code TEXT,
            active BOOLEAN NOT NULL DEFAULT 0,
            multiplier TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_discounts_code ON discounts(code)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
