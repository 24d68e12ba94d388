package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/kaical-backend/internal/platform/envutil"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string
	DSN    string
}

// ConfigFromEnv prefers DATABASE_URL and otherwise assembles a Postgres DSN
// from the POSTGRES_* variables. DB_DRIVER=sqlite uses SQLITE_PATH.
func ConfigFromEnv(log *logger.Logger) Config {
	driver := strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres, log))
	if driver == DriverSQLite {
		return Config{Driver: DriverSQLite, DSN: envutil.String("SQLITE_PATH", "kaical.db", log)}
	}
	if dsn := envutil.String("DATABASE_URL", "", log); dsn != "" {
		return Config{Driver: DriverPostgres, DSN: dsn}
	}
	return Config{
		Driver: DriverPostgres,
		DSN: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			envutil.String("POSTGRES_USER", "postgres", log),
			envutil.String("POSTGRES_PASSWORD", "", log),
			envutil.String("POSTGRES_HOST", "localhost", log),
			envutil.String("POSTGRES_PORT", "5432", log),
			envutil.String("POSTGRES_NAME", "kaical", log),
			envutil.String("POSTGRES_SSLMODE", "disable", log),
		),
	}
}

type PostgresService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewPostgresService(logg *logger.Logger, cfg Config) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driverName(cfg.Driver), err)
	}
	if cfg.Driver == DriverSQLite {
		// One writer at a time; avoids "database is locked" under concurrent requests.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	serviceLog.Info("Database connected", "driver", driverName(cfg.Driver))
	return &PostgresService{db: db, driver: driverName(cfg.Driver), log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func driverName(d string) string {
	if d == "" {
		return DriverPostgres
	}
	return d
}
