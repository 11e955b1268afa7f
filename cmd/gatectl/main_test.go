package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yourusername/hostgate/pkg/hostgate"
	"github.com/yourusername/hostgate/rpc"
)

func startServer(t *testing.T) string {
	t.Helper()

	registry, err := hostgate.New()
	require.NoError(t, err)

	s := rpc.NewServer(registry, nil)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return lis.Addr().String()
}

func gatectl(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"-addr", addr}, args...), &out)
	return out.String(), err
}

func TestGatectl(t *testing.T) {
	addr := startServer(t)

	out, err := gatectl(t, addr, "configure", "example.com", "-cap", "1", "-period-ms", "60000")
	require.NoError(t, err)
	assert.Equal(t, "configured example.com\n", out)

	out, err = gatectl(t, addr, "check", "https://example.com/a")
	require.NoError(t, err)
	assert.Contains(t, out, "allowed example.com")

	out, err = gatectl(t, addr, "check", "https://example.com/b")
	require.NoError(t, err)
	assert.Contains(t, out, "denied example.com (retry after")

	out, err = gatectl(t, addr, "status")
	require.NoError(t, err)
	assert.Equal(t, "ok: 1 buckets\n", out)
}

func TestGatectl_ConfigureWithDefaults(t *testing.T) {
	addr := startServer(t)

	_, err := gatectl(t, addr, "configure", "defaults.test")
	require.NoError(t, err)
}

func TestGatectl_Errors(t *testing.T) {
	addr := startServer(t)

	_, err := gatectl(t, addr)
	assert.True(t, errors.Is(err, errUsage))

	_, err = gatectl(t, addr, "frobnicate")
	assert.True(t, errors.Is(err, errUsage))

	_, err = gatectl(t, addr, "check")
	assert.True(t, errors.Is(err, errUsage))

	_, err = gatectl(t, addr, "check", "nope")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = gatectl(t, addr, "configure", "a.test", "-period-ms", "0")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
