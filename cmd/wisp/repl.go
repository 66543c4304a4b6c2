package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/cache"
	"github.com/wisplang/wisp/internal/compiler"
	"github.com/wisplang/wisp/internal/replio"
	"github.com/wisplang/wisp/internal/vm"
)

func newReplCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive wisp session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cfg)
		},
	}
}

// runREPL mirrors spec.md mode (a): read one line, interpret it, print
// diagnostics on error, and keep going — a bad line never exits the
// session.
func runREPL(cfg *config) error {
	historyPath := ""
	if !cfg.noCache {
		historyPath = filepath.Join(cfg.cacheDir, "history")
	}
	reader, err := replio.Open(historyPath)
	if err != nil {
		return fatalUsage("wisp: starting REPL: %v", err)
	}
	defer reader.Close()

	ca := openCache(cfg)
	if ca != nil {
		defer ca.Close()
	}

	machine := vm.New()
	for {
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, replio.ErrInterrupted) {
			continue
		}
		if err != nil {
			return fatalUsage("wisp: reading input: %v", err)
		}
		if line == "" {
			continue
		}

		interpretLine(machine, ca, cfg, line)
	}
}

func interpretLine(machine *vm.VM, ca *cache.Cache, cfg *config, line string) {
	c, err := compiler.Compile(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if cfg.disassemble {
		fmt.Print(c.Disassemble("repl"))
	}
	if ca != nil {
		ca.Record(line, c, cache.Now(time.Now()))
	}

	if err := machine.Run(c); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
