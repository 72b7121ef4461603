package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
	abcPrefix      = "A9993"
)

type rangeStub struct {
	server *httptest.Server
	hits   atomic.Int64
	down   atomic.Bool
}

func newRangeStub(t *testing.T) *rangeStub {
	t.Helper()
	s := &rangeStub{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/"+passwordPrefix) {
			fmt.Fprintf(w, "%s:3861493\r\n", passwordSuffix)
			return
		}
		fmt.Fprint(w, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n")
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *rangeStub) endpoint() string {
	return s.server.URL + "/range/"
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runApp(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		readPassword: func(string) ([]byte, error) {
			return nil, errNoTerminal
		},
		workDir: t.TempDir(),
	}
	code := a.execute(args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestCheckBreachedExitsOne(t *testing.T) {
	stub := newRangeStub(t)

	res := runApp(t, "password\n", "check", "--stdin", "--endpoint", stub.endpoint())
	assert.Equal(t, exitBreached, res.code, res.stderr)
	assert.Contains(t, res.stdout, "seen 3861493 times")
	assert.NotContains(t, res.stdout+res.stderr, passwordSuffix)
}

func TestCheckCleanExitsZero(t *testing.T) {
	stub := newRangeStub(t)

	res := runApp(t, "abc", "check", "--stdin", "--endpoint", stub.endpoint())
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "not found")
}

func TestCheckJSON(t *testing.T) {
	stub := newRangeStub(t)

	res := runApp(t, "password\r\n", "check", "--stdin", "--json", "--endpoint", stub.endpoint())
	require.Equal(t, exitBreached, res.code, res.stderr)

	var out verdictJSON
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, verdictJSON{Breached: true, Count: 3861493, CountKnown: true}, out)
}

func TestCheckUnavailableExitsTwo(t *testing.T) {
	stub := newRangeStub(t)
	stub.down.Store(true)

	res := runApp(t, "password\n", "check", "--stdin", "--endpoint", stub.endpoint())
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "error:")
}

func TestCheckWithoutTerminal(t *testing.T) {
	stub := newRangeStub(t)

	res := runApp(t, "", "check", "--endpoint", stub.endpoint())
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "--stdin")
	assert.Zero(t, stub.hits.Load())
}

func TestCheckEmptyStdin(t *testing.T) {
	res := runApp(t, "", "check", "--stdin")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "no password on stdin")
}

func TestCheckUsesTerminalPrompt(t *testing.T) {
	stub := newRangeStub(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	var prompted string
	a := &app{
		stdin:  strings.NewReader(""),
		stdout: &stdout,
		stderr: &stderr,
		readPassword: func(prompt string) ([]byte, error) {
			prompted = prompt
			return []byte("password"), nil
		},
		workDir: t.TempDir(),
	}

	code := a.execute([]string{"check", "--endpoint", stub.endpoint()})
	assert.Equal(t, exitBreached, code, stderr.String())
	assert.Equal(t, "Password: ", prompted)
}

func TestSplitIsLocal(t *testing.T) {
	res := runApp(t, "password\n", "split", "--stdin", "--endpoint", "http://127.0.0.1:1/range/")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "digest: 5BAA61E4C9B93F3F0682250B6CF8331B7EE68FD8")
	assert.Contains(t, res.stdout, "prefix: 5BAA6\n")
	assert.Contains(t, res.stdout, "suffix: "+passwordSuffix)
}

func TestInvalidLogLevel(t *testing.T) {
	res := runApp(t, "abc\n", "check", "--stdin", "--log-level", "loud")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "log level")
}

func TestConfigFileApplied(t *testing.T) {
	stub := newRangeStub(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pwncheck.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("endpoint: "+stub.endpoint()+"\nuser_agent: cfg-agent/1\n"), 0o644))

	res := runApp(t, "", "status", "--config", cfgPath)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, stub.endpoint())
	assert.Contains(t, res.stdout, "cfg-agent/1")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pwncheck.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("user_agent: cfg-agent/1\nconcurrency: 2\n"), 0o644))

	res := runApp(t, "", "status", "--config", cfgPath, "--user-agent", "flag-agent/9", "--concurrency", "6", "--no-padding")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "flag-agent/9")
	assert.NotContains(t, res.stdout, "cfg-agent/1")
	assert.Regexp(t, `bulk concurrency\s*\S*\s*6`, res.stdout)
	assert.Regexp(t, `padding\s*\S*\s*false`, res.stdout)
}

func TestStatusWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	res := runApp(t, "", "status", "--redis-addr", mr.Addr())
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "ok (")
}

func TestRedisSharesAvailabilityAcrossRuns(t *testing.T) {
	stub := newRangeStub(t)
	stub.down.Store(true)
	mr := miniredis.RunT(t)

	res := runApp(t, "password\n", "check", "--stdin", "--endpoint", stub.endpoint(), "--redis-addr", mr.Addr())
	require.Equal(t, exitError, res.code)
	assert.True(t, mr.Exists("gb:unavail"))

	res = runApp(t, "", "status", "--redis-addr", mr.Addr())
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Regexp(t, `automatic checks\s*\S*\s*false`, res.stdout)
}

func TestErrBreachedIsSentinel(t *testing.T) {
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", errBreached), errBreached))
}
