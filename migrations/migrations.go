package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrate creates the application tables if they do not exist.
func AutoMigrate(retries int, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS deduction_profiles (
			id INT PRIMARY KEY,
			fixed_cost_ratio DOUBLE NOT NULL,
			tax_rate DOUBLE NOT NULL,
			card_fee_rate DOUBLE NOT NULL,
			royalty_rate DOUBLE NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			quantity DOUBLE NOT NULL,
			unit_cost DOUBLE NOT NULL,
			unit_price DOUBLE NOT NULL,
			revenue DOUBLE NOT NULL
		);`,
	}
	for _, query := range queries {
		_, err := db.Exec(query)
		if err != nil {
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
