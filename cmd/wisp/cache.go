package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCmd(cfg *config) *cobra.Command {
	root := &cobra.Command{
		Use:   "cache",
		Short: "inspect or clear the compiled-chunk cache",
	}
	root.AddCommand(newCacheLsCmd(cfg))
	root.AddCommand(newCacheClearCmd(cfg))
	return root
}

func newCacheLsCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "list cached chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ca := openCache(cfg)
			if ca == nil {
				fmt.Println("cache disabled or unavailable")
				return nil
			}
			defer ca.Close()

			entries, err := ca.List()
			if err != nil {
				return newExitError(70, err)
			}
			if len(entries) == 0 {
				fmt.Println("cache is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  run=%s  constants=%s  compiled_at=%s  bytes=%s\n",
					e.Hash[:12], e.RunID, humanize.Comma(int64(e.Constants)),
					e.CompiledAt, humanize.Bytes(uint64(len(e.Source))))
			}
			return nil
		},
	}
}

func newCacheClearCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "remove every cached chunk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ca := openCache(cfg)
			if ca == nil {
				fmt.Println("cache disabled or unavailable")
				return nil
			}
			defer ca.Close()

			if err := ca.Clear(); err != nil {
				return newExitError(70, err)
			}
			fmt.Println("cache cleared")
			return nil
		},
	}
}
