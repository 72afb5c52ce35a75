package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfworks/magicshelf/magicshelf/library"
)

var seedCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the library with generated demo books",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := library.Open(libraryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := library.Seed(cmd.Context(), store, seedCount); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books into %s\n", seedCount, libraryPath())
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 100, "number of books to generate")
	rootCmd.AddCommand(seedCmd)
}
