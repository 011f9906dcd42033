package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"rustmd/internal/divide"
	"rustmd/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	divideJSON     bool
	divideOperands []string
)

// divideCmd runs the division example
var divideCmd = &cobra.Command{
	Use:   "divide <numerator> <denominator>",
	Short: "Divide two numbers, failing on a zero denominator",
	Long: `Divides numerator by denominator and prints the quotient.

A denominator equal to zero (including -0) fails with "Cannot divide by zero".
Infinities and NaN are accepted and follow floating point rules.

Examples:
  rustmd divide 10 2          # 5
  rustmd divide -7 0          # Cannot divide by zero
  rustmd divide --json 1 8    # {"ok":true,"value":0.125}`,
	// Negative operands such as -7 would be read as shorthand flags, so
	// flags are split from operands by parseDivideArgs instead.
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	PersistentPreRunE:  parseDivideArgs,
	RunE:               runDivide,
}

func init() {
	divideCmd.Flags().BoolVar(&divideJSON, "json", false, "Print the result as JSON")
}

// parseDivideArgs parses the command's flags (including the global ones),
// keeps numbers as operands, then loads the configuration.
func parseDivideArgs(cmd *cobra.Command, args []string) error {
	cmd.InheritedFlags()
	flagArgs, operands := splitOperands(cmd.Flags(), args)
	if err := cmd.Flags().Parse(flagArgs); err != nil {
		return err
	}
	divideOperands = operands
	return loadConfig(cmd, operands)
}

// splitOperands separates flags and their values from operands. Anything
// that parses as a float is an operand, as is everything after "--".
func splitOperands(fs *pflag.FlagSet, args []string) (flagArgs, operands []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return flagArgs, append(operands, args[i+1:]...)
		case isNumber(a) || !strings.HasPrefix(a, "-"):
			operands = append(operands, a)
		default:
			flagArgs = append(flagArgs, a)
			if takesValue(fs, a) && i+1 < len(args) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		}
	}
	return flagArgs, operands
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// takesValue reports whether a flag given as "--name" or "-n" consumes the
// next argument.
func takesValue(fs *pflag.FlagSet, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	var f *pflag.Flag
	switch name := strings.TrimLeft(arg, "-"); {
	case strings.HasPrefix(arg, "--"):
		f = fs.Lookup(name)
	case len(name) == 1:
		f = fs.ShorthandLookup(name)
	}
	return f != nil && f.NoOptDefVal == ""
}

func runDivide(cmd *cobra.Command, args []string) error {
	if help, _ := cmd.Flags().GetBool("help"); help {
		return cmd.Help()
	}
	if len(divideOperands) != 2 {
		return fmt.Errorf("accepts 2 arg(s), received %d", len(divideOperands))
	}

	numerator, err := parseOperand("numerator", divideOperands[0])
	if err != nil {
		return err
	}
	denominator, err := parseOperand("denominator", divideOperands[1])
	if err != nil {
		return err
	}

	result := divide.Compute(numerator, denominator)
	logging.Get(logging.CategoryDivide).Debug("Divided",
		zap.Float64("numerator", numerator),
		zap.Float64("denominator", denominator),
		zap.Bool("ok", result.Ok()))

	out := cmd.OutOrStdout()
	if divideJSON {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return result.Err
	}

	if !result.Ok() {
		return result.Err
	}
	fmt.Fprintln(out, result.String())
	return nil
}

func parseOperand(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}
