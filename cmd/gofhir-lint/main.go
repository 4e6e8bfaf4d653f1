// Command gofhir-lint is a small runnable smoke test for the fhirpath
// engine: it compiles and evaluates expressions against a FHIR resource
// and logs the result. It is not part of the core engine's API surface —
// the engine itself never calls log or slog (see pkg/fhirpath/eval.TraceSink).
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robertoaraneda/fhirpath/pkg/fhirpath"
)

var (
	version  = "dev"
	logLevel string
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute() error {
	rootCmd := newRootCmd()
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gofhir-lint",
		Short: "Check and evaluate FHIRPath expressions",
		Long: `gofhir-lint is a small CLI around the fhirpath engine.

It compiles expressions to surface syntax diagnostics ("check"), and
evaluates expressions against a FHIR resource while logging trace()
output ("eval").`,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newEvalCmd())

	return rootCmd
}

func newLogger() *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("gofhir-lint version %s\n", version)
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [expression...]",
		Short: "Parse FHIRPath expressions without evaluating them",
		Long:  `Compile one or more FHIRPath expressions and report parse diagnostics.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := newLogger()
			failed := 0
			for _, expr := range args {
				if _, err := fhirpath.Compile(expr); err != nil {
					logger.Error("expression failed to compile", "expression", expr, "error", err)
					failed++
					continue
				}
				logger.Info("expression compiled", "expression", expr)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d expressions failed to compile", failed, len(args))
			}
			return nil
		},
	}
}

func newEvalCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "eval [expression] [file]",
		Short: "Evaluate a FHIRPath expression against a resource",
		Long: `Evaluate a FHIRPath expression against a FHIR resource, logging any
trace() output along the way.

Examples:
  gofhir-lint eval "Patient.name.given" patient.json
  gofhir-lint eval "Observation.value.ofType(Quantity).value" observation.json --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := newLogger()
			expression := args[0]
			filePath := args[1]

			resourceData, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", filePath, err)
			}

			compiled, err := fhirpath.Compile(expression)
			if err != nil {
				return fmt.Errorf("invalid FHIRPath expression: %w", err)
			}

			ctx := fhirpath.NewEvalContext(resourceData)
			ctx.SetTracer(func(name string, value fhirpath.Collection) {
				logger.Debug("trace", "name", name, "count", len(value))
			})

			result, err := compiled.EvaluateWithContext(ctx)
			if err != nil {
				return fmt.Errorf("evaluation error: %w", err)
			}

			switch outputFormat {
			case "json":
				return outputJSON(result)
			default:
				return outputText(result)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")

	return cmd
}

func outputText(result fhirpath.Collection) error {
	if result.Empty() {
		fmt.Println("(empty)")
		return nil
	}

	for i, value := range result {
		if len(result) > 1 {
			fmt.Printf("[%d] ", i)
		}
		fmt.Println(value.String())
	}
	return nil
}

func outputJSON(result fhirpath.Collection) error {
	if result.Empty() {
		fmt.Println("[]")
		return nil
	}

	output := make([]interface{}, len(result))
	for i, value := range result {
		output[i] = valueToInterface(value)
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	fmt.Println(string(jsonBytes))
	return nil
}

func valueToInterface(v fhirpath.Value) interface{} {
	switch val := v.(type) {
	case interface{ Bool() bool }:
		return val.Bool()
	case interface{ Value() int64 }:
		return val.Value()
	case interface{ Value() string }:
		return val.Value()
	default:
		return v.String()
	}
}
