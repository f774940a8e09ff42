package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnection_OpensWriteAndReadHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn-test.db")

	conn, err := NewConnection(path, time.Second)
	require.NoError(t, err)
	require.NotNil(t, conn)

	t.Cleanup(func() { _ = conn.Close() })

	assert.NoError(t, conn.HealthCheck(context.Background()))
}

func TestNewConnection_WriteConnIsSingleConn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn-test.db")

	conn, err := NewConnection(path, time.Second)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, writeConnMaxOpen, conn.write.Stats().MaxOpenConnections)
	assert.Equal(t, readConnMaxOpen, conn.read.Stats().MaxOpenConnections)
}

func TestConnection_CloseIsIdempotentSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn-test.db")

	conn, err := NewConnection(path, time.Second)
	require.NoError(t, err)

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}

func TestConnection_HealthCheckWithNilContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn-test.db")

	conn, err := NewConnection(path, time.Second)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	assert.NoError(t, conn.HealthCheck(nil)) //nolint:staticcheck // exercises the nil-context fallback path
}
