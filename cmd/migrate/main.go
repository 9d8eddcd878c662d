package main

import (
	"database/sql"
	"flag"
	"fmt"

	"ms-campus/internal/config"
	"ms-campus/internal/database/migrations"
	"ms-campus/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	var (
		direction = flag.String("direction", "up", "up, down or version")
		to        = flag.Uint("to", 0, "migrate to this schema version instead of all the way up")
	)
	flag.Parse()

	log := logger.NewLogger(logger.Options{Service: "campus-migrate", DisableFile: true})
	defer log.Close()

	_ = godotenv.Load()
	var dbCfg config.DatabaseConfig
	if err := env.Parse(&dbCfg); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	db, err := sql.Open("postgres", dbCfg.DSN)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("open database: %v", err))
	}
	runner := migrations.NewRunner(db, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
	}()

	switch {
	case *to > 0:
		err = runner.MigrateTo(*to)
	case *direction == "up":
		err = runner.MigrateUp()
	case *direction == "down":
		err = runner.MigrateDown()
	case *direction == "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%v\n", version, dirty)
		}
	default:
		err = fmt.Errorf("unknown direction %q", *direction)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
}
