package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/fleetledger/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTransactionsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		raw_identifier TEXT,
		vehicle TEXT NOT NULL,
		amount_net REAL,
		amount_gross REAL,
		currency TEXT NOT NULL,
		quantity REAL,
		category TEXT NOT NULL,
		product_label TEXT,
		source_system TEXT NOT NULL,
		country TEXT,
		company_tag TEXT NOT NULL,
		counterparty TEXT,
		original_amount REAL,
		original_currency TEXT,
		batch_id TEXT,
		hash_id TEXT NOT NULL UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_company_ts
		ON transactions(company_tag, timestamp);

	CREATE TABLE IF NOT EXISTS saved_files (
		file_name TEXT PRIMARY KEY,
		company_tag TEXT NOT NULL,
		file_data BLOB NOT NULL,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateTransactionsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'transactions' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'transactions' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'transactions' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'transactions' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transactions)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'transactions'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'transactions': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'transactions'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'transactions': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'transactions'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'transactions': %v", err)
		}
		return
	}

	if _, ok := columnExists["batch_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN batch_id TEXT")
		if err != nil {
			logger.L.Error("Error adding 'batch_id' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'batch_id' column to 'transactions' table")
		}
	}
	if _, ok := columnExists["original_amount"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN original_amount REAL")
		if err != nil {
			logger.L.Error("Error adding 'original_amount' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'original_amount' column to 'transactions' table")
		}
	}
	if _, ok := columnExists["original_currency"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN original_currency TEXT")
		if err != nil {
			logger.L.Error("Error adding 'original_currency' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'original_currency' column to 'transactions' table")
		}
	}
}
