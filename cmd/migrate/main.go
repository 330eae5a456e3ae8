package main

import (
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/pkg/logger"
)

func main() {
	dir := flag.String("path", "migrations", "directory holding the migration files")
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back); 0 migrates all the way up")
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("cannot load config", err)
	}
	log := logger.NewZapLogger(cfg.App.Env)
	defer log.Sync()

	if cfg.DB.Driver != config.DriverPostgres {
		log.Info("Nothing to migrate for this driver", zap.String("driver", cfg.DB.Driver))
		return
	}

	m, err := migrate.New("file://"+*dir, cfg.DB.DSN)
	if err != nil {
		log.Fatal("cannot create migrate instance", err)
	}
	defer m.Close()

	switch {
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("migration failed", err)
	}

	version, dirty, _ := m.Version()
	log.Info("Migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
