package database

import (
	"database/sql"
	"fmt"
	"time"

	"reuse-atlas/internal/config"
	"reuse-atlas/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

// Open connects to the configured backend. Postgres connections are opened
// through lib/pq and handed to gorm; MySQL uses gorm's own driver.
func Open(cfg config.DatabaseConfig, logLevel logger.LogLevel) (*GormDB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "mysql":
		db, err = gorm.Open(mysql.Open(mysqlDSN(cfg.MySQL)), gormCfg)
	case "postgres":
		var conn *sql.DB
		conn, err = sql.Open("postgres", postgresDSN(cfg.Postgres))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db, err = gorm.Open(postgres.New(postgres.Config{Conn: conn}), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Type, err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Type, err)
	}

	return &GormDB{db: db}, nil
}

func mysqlDSN(c config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func postgresDSN(c config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate. ghost_sites and
// archive_entries are owned by the marketplace but migrated here so a fresh
// deployment is self-contained.
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.NeighborhoodAnalysis{},
		&models.GhostSite{},
		&models.ArchiveEntry{},
		&models.ReuseRecommendation{},
		&models.AnalysisPurgeLog{},
	)
}
