package repository

func schemaFor(d Dialect) []string {
	switch d {
	case DialectMySQL:
		return mysqlSchema
	case DialectPostgres:
		return postgresSchema
	default:
		return sqliteSchema
	}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		aecoin_amount INTEGER NOT NULL,
		price INTEGER NOT NULL,
		bonus_label TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		package_id INTEGER NOT NULL,
		package_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		aecoin_total INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		bill_id TEXT NOT NULL DEFAULT '',
		bill_url TEXT NOT NULL DEFAULT '',
		paid_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_bill ON orders(bill_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS redemption_codes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		aecoin_amount INTEGER NOT NULL,
		order_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		redeemed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_codes_order ON redemption_codes(order_id)`,
	`CREATE TABLE IF NOT EXISTS player_rankings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL UNIQUE,
		player_name TEXT NOT NULL,
		stars INTEGER NOT NULL DEFAULT 0,
		ranking INTEGER NOT NULL,
		image_url TEXT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hero_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		background_image TEXT NOT NULL,
		video_thumbnail TEXT NULL,
		is_active INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		aecoin_amount BIGINT NOT NULL,
		price BIGINT NOT NULL,
		bonus_label VARCHAR(255) NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		username VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		package_id BIGINT NOT NULL,
		package_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		aecoin_total BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		bill_id VARCHAR(64) NOT NULL DEFAULT '',
		bill_url VARCHAR(512) NOT NULL DEFAULT '',
		paid_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_orders_bill (bill_id),
		INDEX idx_orders_user (user_id, created_at),
		INDEX idx_orders_status (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS redemption_codes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(32) NOT NULL UNIQUE,
		aecoin_amount BIGINT NOT NULL,
		order_id CHAR(36) NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		redeemed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_codes_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS player_rankings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL UNIQUE,
		player_name VARCHAR(255) NOT NULL,
		stars INT NOT NULL DEFAULT 0,
		ranking INT NOT NULL,
		image_url VARCHAR(1024) NULL,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS hero_settings (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		background_image VARCHAR(1024) NOT NULL,
		video_thumbnail VARCHAR(1024) NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS packages (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		aecoin_amount BIGINT NOT NULL,
		price BIGINT NOT NULL,
		bonus_label TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		package_id BIGINT NOT NULL,
		package_name TEXT NOT NULL,
		quantity INT NOT NULL,
		aecoin_total BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		bill_id TEXT NOT NULL DEFAULT '',
		bill_url TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_bill ON orders(bill_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS redemption_codes (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		aecoin_amount BIGINT NOT NULL,
		order_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		redeemed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_codes_order ON redemption_codes(order_id)`,
	`CREATE TABLE IF NOT EXISTS player_rankings (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		player_name TEXT NOT NULL,
		stars INT NOT NULL DEFAULT 0,
		ranking INT NOT NULL,
		image_url TEXT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hero_settings (
		id BIGSERIAL PRIMARY KEY,
		background_image TEXT NOT NULL,
		video_thumbnail TEXT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}
