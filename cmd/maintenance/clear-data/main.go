package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/issaclevi/wayzx-backend/internal/config"
	"github.com/issaclevi/wayzx-backend/internal/database"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Tables holding bookings, ledgers and sessions
var activityTables = []string{
	"audit_logs",
	"refresh_tokens",
	"room_availability",
	"bookings",
	"user_reward_history",
	"user_rewards",
	"reward_setting_logs",
}

// Tables holding the catalogue and accounts, cleared only with -all
var catalogTables = []string{
	"coupons",
	"rooms",
	"space_types",
	"reward_settings",
	"users",
}

func main() {
	var (
		dbURL   string
		all     bool
		confirm bool
	)
	flag.StringVar(&dbURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&all, "all", false, "also clear users, rooms, space types, coupons and reward settings")
	flag.BoolVar(&confirm, "yes", false, "skip the confirmation prompt")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	tables := activityTables
	if all {
		tables = append(append([]string{}, activityTables...), catalogTables...)
	}

	if !confirm {
		fmt.Printf("This truncates %s. Type 'yes' to continue: ", strings.Join(tables, ", "))
		var answer string
		fmt.Scanln(&answer)
		if answer != "yes" {
			logger.Info("Aborted")
			return
		}
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		logger.WithError(err).Fatal("Failed to truncate tables")
	}

	for _, table := range tables {
		var count int
		if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
			logger.WithError(err).WithField("table", table).Warn("Failed to count rows")
			continue
		}
		logger.WithFields(logrus.Fields{"table": table, "rows": count}).Info("Cleared")
	}
}
