package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/compiler"
)

func newDisasmCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "compile a wisp source file and print its bytecode disassembly, without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return fatalUsage("wisp: reading %s: %v", path, err)
			}
			c, err := compiler.Compile(string(content))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return newExitError(65, err)
			}
			fmt.Print(c.Disassemble(path))
			return nil
		},
	}
}
