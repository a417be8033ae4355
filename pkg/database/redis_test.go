package database

import (
	"langquiz_backend/internal/config"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	rdb, err := InitRedis(&config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer rdb.Close()
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()

	_, err = InitRedis(&config.RedisConfig{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
