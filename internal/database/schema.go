package database

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    telegram_id BIGINT NOT NULL UNIQUE,
    username VARCHAR(255),
    first_name VARCHAR(255),
    last_name VARCHAR(255),
    points BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS transactions (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    points BIGINT NOT NULL,
    kind VARCHAR(32) NOT NULL,
    description TEXT,
    reference CHAR(36) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    telegram_id INTEGER NOT NULL UNIQUE,
    username TEXT,
    first_name TEXT,
    last_name TEXT,
    points INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    points INTEGER NOT NULL,
    kind TEXT NOT NULL,
    description TEXT,
    reference TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,
}

// Schema returns the bootstrap DDL for the given engine. Statements only
// create missing relations, so running them on every start is safe.
func (e Engine) Schema() []string {
	if e == EngineMySQL {
		return mysqlSchema
	}
	return sqliteSchema
}

// UpsertUserQuery returns the engine-native atomic insert-or-update keyed on
// telegram_id. Display fields are overwritten, points are left untouched.
func (e Engine) UpsertUserQuery() string {
	if e == EngineMySQL {
		return `
INSERT INTO users (telegram_id, username, first_name, last_name)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
ON DUPLICATE KEY UPDATE
    username = VALUES(username),
    first_name = VALUES(first_name),
    last_name = VALUES(last_name),
    updated_at = CURRENT_TIMESTAMP`
	}
	return `
INSERT INTO users (telegram_id, username, first_name, last_name)
VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
ON CONFLICT(telegram_id) DO UPDATE SET
    username = excluded.username,
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    updated_at = CURRENT_TIMESTAMP`
}
