package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/neolms-api/pkg/config"
)

func TestDSNEscapesCredentials(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "lms",
		Password: "p@ss word",
		Name:     "neolms",
		SSLMode:  "disable",
	})

	assert.Equal(t, "postgres://lms:p%40ss%20word@db:5432/neolms?sslmode=disable", dsn)
}
