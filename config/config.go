// Package config loads the engine's startup text file (spec §6.4): one
// "key: value" pair per line. Unknown keys are rejected outright rather
// than silently ignored.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/dolthub/ustore/status"
)

// Config holds every recognized startup option (spec §6.4).
type Config struct {
	WorkerFile      string
	ChunkServerFile string
	RecvThreads     uint32
	ServiceThreads  uint32
	DataDir         string
	HTTPPort        uint16
	NClients        uint32
	NumSegments     uint32
}

type field struct {
	set func(*Config, string) error
}

var fields = map[string]field{
	"worker_file":       {func(c *Config, v string) error { c.WorkerFile = v; return nil }},
	"chunk_server_file": {func(c *Config, v string) error { c.ChunkServerFile = v; return nil }},
	"recv_threads":      {func(c *Config, v string) error { return setU32(&c.RecvThreads, v) }},
	"service_threads":   {func(c *Config, v string) error { return setU32(&c.ServiceThreads, v) }},
	"data_dir":          {func(c *Config, v string) error { c.DataDir = v; return nil }},
	"http_port":         {func(c *Config, v string) error { return setU16(&c.HTTPPort, v) }},
	"n_clients":         {func(c *Config, v string) error { return setU32(&c.NClients, v) }},
	"num_segments":      {func(c *Config, v string) error { return setU32(&c.NumSegments, v) }},
}

func setU32(dst *uint32, v string) error {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return status.New(status.InvalidCommandArgument, "expected u32, got %q", v)
	}
	*dst = uint32(n)
	return nil
}

func setU16(dst *uint16, v string) error {
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return status.New(status.InvalidCommandArgument, "expected u16, got %q", v)
	}
	*dst = uint16(n)
	return nil
}

// Load parses the config file at path. Blank lines and lines starting
// with '#' are skipped; every other line must be "key: value".
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, status.New(status.IOFault, "open config %s: %v", path, err)
	}
	defer f.Close()

	var c Config
	s := bufio.NewScanner(f)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return Config{}, status.New(status.InvalidCommandArgument, "config %s:%d: malformed line %q", path, lineNo, line)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		fd, known := fields[key]
		if !known {
			return Config{}, status.New(status.InvalidCommandArgument, "config %s:%d: unrecognized key %q", path, lineNo, key)
		}
		if err := fd.set(&c, val); err != nil {
			return Config{}, err
		}
	}
	if err := s.Err(); err != nil {
		return Config{}, status.New(status.IOFault, "read config %s: %v", path, err)
	}
	return c, nil
}
