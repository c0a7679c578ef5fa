package cli

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandReadsEnvAndDefaults(t *testing.T) {
	t.Setenv("TESTPROG_LISTEN_ADDR", ":9000")
	t.Setenv("TESTPROG_VERBOSE", "true")

	var (
		addr    string
		port    int
		limit   int64
		verbose bool
		ttl     time.Duration
		ran     bool
	)
	cmd := NewCommand(viper.New(), "testprog", &Program{
		Name: "testprog",
		Run:  func() error { ran = true; return nil },
		Opts: []Opt{
			NewOpt(&addr, "listen-addr", ":8080", "listen address"),
			NewOpt(&port, "port", 5000, "port"),
			NewOpt(&limit, "limit", int64(12), "limit"),
			NewOpt(&verbose, "verbose", false, "verbose"),
			NewOpt(&ttl, "ttl", time.Minute, "ttl"),
		},
	})
	cmd.SetArgs([]string{"--port", "7000"})
	require.NoError(t, cmd.Execute())

	assert.True(t, ran)
	assert.Equal(t, ":9000", addr)
	assert.Equal(t, 7000, port)
	assert.Equal(t, int64(12), limit)
	assert.True(t, verbose)
	assert.Equal(t, time.Minute, ttl)
}

func TestBindOptionsUnknownType(t *testing.T) {
	var f float64
	assert.Panics(t, func() {
		NewCommand(viper.New(), "testprog", &Program{
			Name: "testprog",
			Run:  func() error { return nil },
			Opts: []Opt{NewOpt(&f, "ratio", 0.5, "ratio")},
		})
	})
}
