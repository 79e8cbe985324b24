package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memkit/service"
)

func TestRunDefaults(t *testing.T) {
	require.NoError(t, run(nil))
}

func TestRunWithStore(t *testing.T) {
	require.NoError(t, run([]string{"--count", "20", "--store-dir", t.TempDir(), "--allocator", "pool"}))
}

func TestRunRejectsBadAllocator(t *testing.T) {
	assert.Error(t, run([]string{"--allocator", "arena"}))
}

func TestRunRejectsBrokersWithoutStore(t *testing.T) {
	assert.Error(t, run([]string{"--brokers", "localhost:9092"}))
}

func TestMergeFlagsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("count: 64\nallocator: pool\n"), 0o644))
	file, err := service.LoadConfig(path)
	require.NoError(t, err)

	set := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var flags service.Config
	set.IntVar(&flags.Count, "count", 0, "")
	set.StringVar(&flags.Allocator, "allocator", "", "")
	require.NoError(t, set.Parse([]string{"--count", "128"}))

	got := merge(file, flags, set)
	assert.Equal(t, 128, got.Count)
	assert.Equal(t, service.AllocatorPool, got.Allocator)
}
