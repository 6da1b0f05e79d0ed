package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists every table in dependency order.  Statements are
// idempotent so Migrate can run on every startup.
//
// The unique keys are load-bearing: (item_id, size, color) makes a
// variant's stock a single row the conditional decrement can target,
// (table_no, seat_no) makes double-booking a key violation instead
// of a race, and (provider, payment_id) turns webhook redelivery
// into a duplicate-key no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		code             VARCHAR(32)     NOT NULL,
		name             VARCHAR(128)    NOT NULL,
		unit_price_cents BIGINT          NOT NULL,
		active           TINYINT(1)      NOT NULL DEFAULT 1,
		created_at       DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_items_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS item_variants (
		id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		item_id BIGINT UNSIGNED NOT NULL,
		size    VARCHAR(16)     NOT NULL DEFAULT '',
		color   VARCHAR(32)     NOT NULL DEFAULT '',
		stock   INT             NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_variant (item_id, size, color),
		CONSTRAINT fk_variant_item FOREIGN KEY (item_id) REFERENCES items (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS packs (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		code            VARCHAR(32)     NOT NULL,
		name            VARCHAR(128)    NOT NULL,
		price_cents     BIGINT          NOT NULL,
		pre_price_cents BIGINT          NOT NULL DEFAULT 0,
		active          TINYINT(1)      NOT NULL DEFAULT 1,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_packs_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS pack_items (
		id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		pack_id   BIGINT UNSIGNED NOT NULL,
		item_code VARCHAR(32)     NOT NULL,
		quantity  INT             NOT NULL,
		PRIMARY KEY (id),
		CONSTRAINT fk_pack_item_pack FOREIGN KEY (pack_id) REFERENCES packs (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		public_code       VARCHAR(32)     NOT NULL,
		user_id           BIGINT UNSIGNED NOT NULL,
		status            VARCHAR(16)     NOT NULL,
		total_cents       BIGINT          NOT NULL,
		status_changed_at DATETIME        NOT NULL,
		status_changed_by BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_orders_public_code (public_code),
		KEY idx_orders_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		order_id         BIGINT UNSIGNED NOT NULL,
		item_code        VARCHAR(32)     NOT NULL,
		name             VARCHAR(128)    NOT NULL,
		unit_price_cents BIGINT          NOT NULL,
		quantity         INT             NOT NULL,
		size             VARCHAR(16)     NOT NULL DEFAULT '',
		color            VARCHAR(32)     NOT NULL DEFAULT '',
		pack_code        VARCHAR(32)     NOT NULL DEFAULT '',
		PRIMARY KEY (id),
		KEY idx_order_items_order (order_id),
		CONSTRAINT fk_order_item_order FOREIGN KEY (order_id) REFERENCES orders (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seat_bookings (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		table_no   INT             NOT NULL,
		seat_no    INT             NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seat (table_no, seat_no),
		KEY idx_seat_bookings_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id      BIGINT UNSIGNED NOT NULL,
		amount_cents BIGINT          NOT NULL,
		reason       VARCHAR(32)     NOT NULL,
		reference    VARCHAR(64)     NULL,
		actor_id     BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_wallet_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payment_records (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		provider     VARCHAR(16)     NOT NULL,
		payment_id   VARCHAR(64)     NOT NULL,
		order_id     BIGINT UNSIGNED NULL,
		status_code  VARCHAR(16)     NOT NULL,
		amount_cents BIGINT          NOT NULL,
		currency     CHAR(3)         NOT NULL,
		purpose      VARCHAR(8)      NOT NULL,
		raw_payload  TEXT            NOT NULL,
		processed    TINYINT(1)      NOT NULL DEFAULT 0,
		anomaly      VARCHAR(255)    NOT NULL DEFAULT '',
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_payment (provider, payment_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It runs at startup before the
// HTTP server accepts traffic.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
