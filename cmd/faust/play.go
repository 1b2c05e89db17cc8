package main

import (
	"flag"
	"fmt"

	"github.com/pipelined/faust/portaudio"
)

type playCommand struct {
	config   string
	script   string
	nvoices  int
	duration float64
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play a DSP script through the default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "path to a TOML host configuration")
	fs.StringVar(&cmd.script, "script", "", "DSP script to load (empty plays the demo unit)")
	fs.IntVar(&cmd.nvoices, "nvoices", -1, "-1 auto-detect, 0 effect, n>0 instrument voices")
	fs.Float64Var(&cmd.duration, "duration", 5, "seconds to play")
}

func (cmd *playCommand) Run() error {
	cfg, err := loadConfig(cmd.config)
	if err != nil {
		return err
	}
	h, err := newHost(cfg, cmd.script, cmd.nvoices)
	if err != nil {
		return err
	}
	defer h.Unload()

	player := portaudio.NewPlayer(h, cfg.SampleRate, cfg.BufferSize, cfg.NumChannels, cfg.Tempo)
	if err := player.Start(); err != nil {
		return err
	}
	blocks := int(cmd.duration * float64(cfg.SampleRate) / float64(cfg.BufferSize))
	for i := 0; i < blocks; i++ {
		if err := player.Write(); err != nil {
			player.Flush()
			return err
		}
	}
	fmt.Printf("Played %v block(s)\n", blocks)
	return player.Flush()
}
