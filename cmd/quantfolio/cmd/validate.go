package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quantfolio/sandbox"
)

var validateCmd = &cobra.Command{
	Use:   "validate <strategy.tengo>",
	Short: "Validate a strategy script without running a backtest",
	Long: `Compile a strategy script and dry-run it against a synthetic price
window. Reports capability violations, compile errors, runtime errors and
malformed output before they can degrade a real run.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	violations := sandbox.Validate(code)
	if len(violations) == 0 {
		fmt.Printf("%s: ok\n", args[0])
		return nil
	}

	for _, v := range violations {
		fmt.Printf("%s: %s: %s\n", args[0], v.Kind, v.Message)
	}
	return fmt.Errorf("%d problem(s) found", len(violations))
}
