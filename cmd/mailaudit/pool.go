package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synqronlabs/mailaudit/selectors"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage the brute-force selector pool",
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the pool, one selector per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := openPool()
		if err != nil {
			return err
		}
		for _, s := range pool.Selectors() {
			fmt.Println(s)
		}
		return nil
	},
}

var poolSetCmd = &cobra.Command{
	Use:   "set [selectors...]",
	Short: "Replace the pool contents",
	Long: `Replace the selector pool. Selectors are taken from the arguments,
or from stdin (one per line) when no arguments are given. Requires
--pool-file so the result can be persisted.

Examples:
  mailaudit pool set --pool-file pool.txt default google selector1
  cat selectors.txt | mailaudit pool set --pool-file pool.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if poolPath == "" {
			return fmt.Errorf("pool set requires --pool-file")
		}

		sels := args
		if len(sels) == 0 {
			sc := bufio.NewScanner(os.Stdin)
			for sc.Scan() {
				if line := sc.Text(); line != "" {
					sels = append(sels, line)
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}
		}

		pool := selectors.NewPool(poolPath, newLogger())
		if err := pool.Set(sels); err != nil {
			return err
		}
		fmt.Printf("Saved %d selectors to %s\n", len(sels), poolPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolListCmd)
	poolCmd.AddCommand(poolSetCmd)
}

func openPool() (*selectors.Pool, error) {
	pool := selectors.NewPool(poolPath, newLogger())
	if poolPath != "" {
		if err := pool.Load(); err != nil {
			return nil, err
		}
	}
	return pool, nil
}
