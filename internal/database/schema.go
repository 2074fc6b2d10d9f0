package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Showing key columns use a binary collation so that equality filters
// match exactly, case included.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  email         VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  role          VARCHAR(16)  NOT NULL DEFAULT 'CUSTOMER',
  categories    JSON NULL,
  is_active     TINYINT(1) NOT NULL DEFAULT 1,
  created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
  id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  user_id    BIGINT UNSIGNED NOT NULL,
  token_hash CHAR(64) NOT NULL,
  expires_at DATETIME NOT NULL,
  revoked_at DATETIME NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE KEY uq_refresh_hash (token_hash),
  KEY idx_refresh_user (user_id),
  CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
  id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  title       VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
  description TEXT NOT NULL,
  trailer     VARCHAR(512) NOT NULL DEFAULT '',
  image       VARCHAR(512) NOT NULL DEFAULT '',
  rating      DECIMAL(3,1) NULL,
  labels      JSON NULL,
  created_at  DATETIME NOT NULL,
  updated_at  DATETIME NOT NULL,
  UNIQUE KEY uq_movies_title (title)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
  id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  user_email          VARCHAR(255) NOT NULL,
  movie_name          VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
  location            VARCHAR(64)  COLLATE utf8mb4_bin NOT NULL,
  show_time           VARCHAR(32)  COLLATE utf8mb4_bin NOT NULL,
  show_date           CHAR(10) NOT NULL,
  seat_count          INT NOT NULL,
  seat_subtotal_cents BIGINT NOT NULL,
  food_items          JSON NULL,
  food_subtotal_cents BIGINT NOT NULL DEFAULT 0,
  grand_total_cents   BIGINT NOT NULL,
  cardholder_name     VARCHAR(255) NOT NULL,
  card_number_masked  CHAR(16) NOT NULL,
  created_at          DATETIME NOT NULL,
  KEY idx_bookings_showing (movie_name, location, show_time),
  KEY idx_bookings_user (user_email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// claim is 1 for seats booked with the strict seat lock and NULL
	// otherwise, so only strict bookings collide on the unique key.
	`CREATE TABLE IF NOT EXISTS booking_seats (
  booking_id BIGINT UNSIGNED NOT NULL,
  position   INT NOT NULL,
  movie_name VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
  location   VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
  show_time  VARCHAR(32) COLLATE utf8mb4_bin NOT NULL,
  seat_label VARCHAR(8) COLLATE utf8mb4_bin NOT NULL,
  claim      TINYINT NULL,
  PRIMARY KEY (booking_id, position),
  KEY idx_booking_seats_label (seat_label),
  UNIQUE KEY uq_booking_seats_showing (movie_name, location, show_time, seat_label, claim),
  CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
