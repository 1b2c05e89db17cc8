package main

import (
	"github.com/BurntSushi/toml"

	"github.com/pipelined/faust"
	"github.com/pipelined/faust/cache"
	"github.com/pipelined/faust/host"
	"github.com/pipelined/faust/mock"
)

// fileConfig is the optional TOML host configuration.
type fileConfig struct {
	SampleRate  int      `toml:"sample_rate"`
	BufferSize  int      `toml:"buffer_size"`
	NumChannels int      `toml:"num_channels"`
	Tempo       float64  `toml:"tempo"`
	ImportPaths []string `toml:"import_paths"`
	CacheDir    string   `toml:"cache_dir"`
}

func loadConfig(path string) (fileConfig, error) {
	cfg := fileConfig{
		SampleRate:  44100,
		BufferSize:  512,
		NumChannels: 2,
		Tempo:       120,
	}
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// newHost wires the built-in demo gateway, a cache when configured, and
// loads the script (which may be empty: the demo unit needs none).
func newHost(cfg fileConfig, script string, nvoices int) (*host.Host, error) {
	var c *cache.Cache
	if cfg.CacheDir != "" && script != "" {
		var err error
		if c, err = cache.New(cfg.CacheDir); err != nil {
			return nil, err
		}
	}
	h := host.New(&mock.Gateway{Unit: mock.Demo()}, c)
	err := h.Load(host.Config{
		Script:      script,
		ImportPaths: cfg.ImportPaths,
		SampleRate:  cfg.SampleRate,
		Mode:        faust.LoadMode(nvoices),
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}
