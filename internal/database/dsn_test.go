package database

import (
	"testing"

	"reuse-atlas/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(config.MySQLConfig{Host: "mysql", Port: 3306, User: "u", Password: "p", Database: "atlas"})
	assert.Equal(t, "u:p@tcp(mysql:3306)/atlas?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "atlas", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=atlas sslmode=disable", dsn)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%fremantle%", containsPattern("FreMANTLE"))
}
