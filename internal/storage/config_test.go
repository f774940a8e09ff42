package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath_DefaultWhenUnset(t *testing.T) {
	t.Setenv("DATABASE_FILE", "")

	assert.Equal(t, DefaultDatabaseFile, ResolvePath())
}

func TestResolvePath_ReadsEnvVar(t *testing.T) {
	t.Setenv("DATABASE_FILE", "/tmp/custom.db")

	assert.Equal(t, "/tmp/custom.db", ResolvePath())
}

func TestResolvePath_ReadsFreshOnEveryCall(t *testing.T) {
	t.Setenv("DATABASE_FILE", "/tmp/first.db")
	assert.Equal(t, "/tmp/first.db", ResolvePath())

	t.Setenv("DATABASE_FILE", "/tmp/second.db")
	assert.Equal(t, "/tmp/second.db", ResolvePath())
}
