package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uni-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "scheduler",
		Password: `it's a secret`,
		Name:     "university_timetable",
		SSLMode:  "disable",
	})

	assert.Equal(t, `host=db port=5432 user=scheduler password='it\'s a secret' dbname=university_timetable sslmode=disable`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "tt"})

	assert.Equal(t, "host=localhost port=5432 dbname=tt", dsn)
}
