package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shelfworks/magicshelf/magicshelf/library"
	"github.com/shelfworks/magicshelf/magicshelf/rules"
)

var (
	searchLimit  int
	searchOffset int
)

var searchCmd = &cobra.Command{
	Use:   "search [rule.json]",
	Short: "Run a rule tree against the library",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readRuleInput(args)
		if err != nil {
			return err
		}
		group, err := rules.ParseGroup(data)
		if err != nil {
			return fmt.Errorf("cannot parse rule tree: %w", err)
		}

		store, err := library.Open(libraryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		books, err := store.Search(cmd.Context(), group, library.Page{Limit: searchLimit, Offset: searchOffset})
		if err != nil {
			return err
		}
		count, err := store.Count(cmd.Context(), group)
		if err != nil {
			return err
		}

		for _, b := range books {
			fmt.Fprintf(cmd.OutOrStdout(), "%6d  %-50s  %s\n", b.ID, b.Title, b.ISBN)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d matching books\n", len(books), count)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum books to print")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "books to skip")
	rootCmd.AddCommand(searchCmd)
}
