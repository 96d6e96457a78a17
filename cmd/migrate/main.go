// Command migrate applies the reconciliation schema migrations from
// db/migrations against the configured database.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"porecon/internal/config"
)

const usage = "usage: migrate up|down|steps N|force V|version"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("migrate: load config: %v", err)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		log.Fatalf("migrate: open %s: %v", cfg.DB.Name, err)
	}
	defer m.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: up: %v", err)
		}
		log.Println("migrate: schema is up to date")

	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: down: %v", err)
		}
		log.Println("migrate: schema reverted")

	case "steps":
		n, err := argInt(2, "steps")
		if err != nil {
			log.Fatal(err)
		}
		if err := m.Steps(n); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migrate: steps %d: %v", n, err)
		}
		log.Printf("migrate: applied %d steps", n)

	case "force":
		// Clears a dirty flag left by an interrupted migration.
		v, err := argInt(2, "force")
		if err != nil {
			log.Fatal(err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("migrate: force %d: %v", v, err)
		}
		log.Printf("migrate: version forced to %d", v)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("migrate: version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("migrate: unknown command %q\n%s\n", cmd, usage)
		os.Exit(1)
	}
}

func argInt(pos int, cmd string) (int, error) {
	if len(os.Args) <= pos {
		return 0, fmt.Errorf("migrate: %s requires a number argument", cmd)
	}
	n, err := strconv.Atoi(os.Args[pos])
	if err != nil {
		return 0, fmt.Errorf("migrate: %s: invalid number %q", cmd, os.Args[pos])
	}
	return n, nil
}
