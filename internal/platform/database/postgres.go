package database

import (
	"database/sql"
	"time"

	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error opening database")
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err = DB.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Error connecting to database")
	}

	logger.Info().Str("host", config.AppConfig.DBHost).Str("db", config.AppConfig.DBName).Msg("Connected to PostgreSQL")
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.Info().Msg("Database connection closed")
	}
}
