package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/cache"
	"github.com/wisplang/wisp/internal/compiler"
	"github.com/wisplang/wisp/internal/vm"
)

func newRunCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "compile and run a wisp source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cfg, args[0])
		},
	}
}

func runFile(cfg *config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fatalUsage("wisp: reading %s: %v", path, err)
	}
	source := string(content)

	c, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return newExitError(65, err)
	}

	ca := openCache(cfg)
	if ca != nil {
		defer ca.Close()
	}

	if cfg.disassemble {
		if ca != nil {
			if entry, hit := ca.Lookup(source); hit {
				logrus.WithField("hash", entry.Hash).Debug("cache: reusing disassembly from prior run")
				fmt.Print(entry.Disassembly)
			} else {
				fmt.Print(c.Disassemble(path))
			}
		} else {
			fmt.Print(c.Disassemble(path))
		}
	}

	if ca != nil {
		ca.Record(source, c, cache.Now(time.Now()))
	}

	machine := vm.New()
	if err := machine.Run(c); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return newExitError(70, err)
	}
	return nil
}
