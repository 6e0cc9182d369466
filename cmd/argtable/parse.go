package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-argparse/argparse"
)

func newParseCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <table> [-- args...]",
		Short: "Parse arguments against a table and print the result",
		Long: `Parse the arguments after "--" with the table and print the resulting
mapping. Parse errors and help screens are rendered exactly as a program built
on the table would render them, and the exit code follows the same mapping.`,
		Example: `  argtable parse tool.yaml -- --port 9000 serve
  argtable parse tool.toml --format yaml -- -vv input.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}

			code := 0
			p := a.printer(func(c int) { code = c })
			s.Handler = p.Handler()
			s.StopHandler = p.StopHandler()

			res, err := s.Parse(args[1:])
			if err != nil {
				return &argparse.ExitError{Code: code, Err: err}
			}
			if res == nil {
				// help or version screen was printed
				return nil
			}
			return writeResult(cmd.OutOrStdout(), a.config.GetString("format"), res)
		},
	}
	cmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	return cmd
}

func writeResult(w io.Writer, format string, res *argparse.Result) error {
	doc := plainMap(res.Map())
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (expected json or yaml)", format)
	}
}

// plainMap rewrites values that encoders would print unhelpfully.
func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case time.Duration:
		return x.String()
	case map[string]any:
		return plainMap(x)
	case []any:
		list := make([]any, len(x))
		for i := range x {
			list[i] = plainValue(x[i])
		}
		return list
	default:
		return v
	}
}
