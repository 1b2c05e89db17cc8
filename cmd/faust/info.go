package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/pipelined/faust"
)

type infoCommand struct {
	config  string
	script  string
	nvoices int
	zones   bool
}

func (cmd *infoCommand) Name() string {
	return "info"
}

func (cmd *infoCommand) Help() string {
	return "Load a DSP script and dump its channels and widget tree"
}

func (cmd *infoCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "path to a TOML host configuration")
	fs.StringVar(&cmd.script, "script", "", "DSP script to load (empty loads the demo unit)")
	fs.IntVar(&cmd.nvoices, "nvoices", -1, "-1 auto-detect, 0 effect, n>0 instrument voices")
	fs.BoolVar(&cmd.zones, "zones", false, "also print the zone persistence map")
}

func (cmd *infoCommand) Run() error {
	cfg, err := loadConfig(cmd.config)
	if err != nil {
		return err
	}
	h, err := newHost(cfg, cmd.script, cmd.nvoices)
	if err != nil {
		return err
	}
	defer h.Unload()

	d := h.Current()
	info := d.Info()
	fmt.Printf("Sample rate:\t%v\n", info.SampleRate)
	fmt.Printf("Inputs:\t%v\n", info.NumInputs)
	fmt.Printf("Outputs:\t%v\n", info.NumOutputs)
	fmt.Println("Widgets:")
	d.Widgets(func(widgets []faust.Widget) {
		spew.Fdump(os.Stdout, widgets)
	})
	if cmd.zones {
		zones := h.SaveZones()
		paths := make([]string, 0, len(zones))
		for p := range zones {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		fmt.Println("Zones:")
		for _, p := range paths {
			fmt.Printf("\t%v = %v\n", p, zones[p])
		}
	}
	return nil
}
