package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfworks/magicshelf/magicshelf/evaluate"
	"github.com/shelfworks/magicshelf/magicshelf/predicate"
	"github.com/shelfworks/magicshelf/magicshelf/rules"
	"github.com/shelfworks/magicshelf/magicshelf/rules/operators"
	"github.com/shelfworks/magicshelf/magicshelf/schema"
)

var compileDialect string

var compileCmd = &cobra.Command{
	Use:   "compile [rule.json]",
	Short: "Compile a rule tree to a SQL predicate",
	Long: `Reads a rule tree (JSON) from the given file or stdin and prints the
compiled WHERE condition and its arguments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readRuleInput(args)
		if err != nil {
			return err
		}
		group, err := rules.ParseGroup(data)
		if err != nil {
			return fmt.Errorf("cannot parse rule tree: %w", err)
		}
		if err := group.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}

		evaluator := evaluate.NewEvaluator(schema.NewBookRegistry(), operators.NewRegistry())
		pred := evaluator.Evaluate(group)

		sql := pred.SQL
		if compileDialect == "postgres" {
			sql = predicate.Rebind(sql, 1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), sql)
		for i, arg := range pred.Args {
			fmt.Fprintf(cmd.OutOrStdout(), "  arg %d: %v\n", i+1, arg)
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileDialect, "dialect", "sqlite", "placeholder dialect: sqlite or postgres")
	rootCmd.AddCommand(compileCmd)
}

func readRuleInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
