// cmd/migrator applies the SQL migrations under migrations/ to Postgres.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	directionUp   = "up"
	directionDown = "down"
)

func main() {
	var migrationsPath, databaseURL, direction string
	flag.StringVar(&migrationsPath, "migrations-path", "migrations", "path to migration files")
	flag.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")
	flag.StringVar(&direction, "direction", directionUp, "up or down")
	flag.Parse()

	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "database-url (or DATABASE_URL) is required")
		os.Exit(2)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open migrator: %v\n", err)
		os.Exit(1)
	}

	switch direction {
	case directionDown:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", direction, err)
		os.Exit(1)
	}

	fmt.Printf("migrations applied (%s)\n", direction)
}
