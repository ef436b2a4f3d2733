package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cwbudde/saulscript/internal/lexer"
	"github.com/cwbudde/saulscript/internal/parser"
	"github.com/cwbudde/saulscript/internal/runtime"
	"github.com/cwbudde/saulscript/pkg/saulscript"
)

var (
	evalExpr     string
	dumpAST      bool
	trace        bool
	opLimit      int
	timeLimit    float64
	bindingsFile string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a SaulScript file or expression",
	Long: `Execute a SaulScript program from a file or inline expression.

Examples:
  # Run a script file
  saulscript run script.saul

  # Evaluate an inline expression
  saulscript run -e "print(1 + 2)"

  # Run with AST dump (for debugging)
  saulscript run --dump-ast script.saul

  # Bound the script to 10000 operations and 2 seconds
  saulscript run --op-limit 10000 --time-limit 2 script.saul`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "dump the parsed AST (for debugging)")
	runCmd.Flags().BoolVar(&trace, "trace", false, "trace execution (for debugging)")
	runCmd.Flags().IntVar(&opLimit, "op-limit", 0, "maximum AST nodes to reduce (0 = unbounded)")
	runCmd.Flags().Float64Var(&timeLimit, "time-limit", 0, "maximum wall-clock seconds (0 = unbounded)")
	runCmd.Flags().StringVar(&bindingsFile, "bindings", "", "YAML file of name: value bindings to expose to the script")
}

func runScript(_ *cobra.Command, args []string) error {
	var input string
	var filename string

	switch {
	case evalExpr != "":
		input = evalExpr
		filename = "<eval>"
	case len(args) == 1:
		filename = args[0]
		content, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", filename, err)
		}
		input = string(content)
	default:
		return fmt.Errorf("either provide a file path or use -e flag for inline code")
	}

	if dumpAST {
		tokens, err := lexer.New(input).Lex()
		if err != nil {
			fmt.Fprintln(os.Stderr, saulscript.FormatError(err, input, filename))
			return fmt.Errorf("lexing failed")
		}
		program, err := parser.Parse(tokens)
		if err != nil {
			fmt.Fprintln(os.Stderr, saulscript.FormatError(err, input, filename))
			return fmt.Errorf("parsing failed")
		}
		fmt.Println("AST:")
		fmt.Println(program.String())
		fmt.Println()
	}

	engine := saulscript.New(
		saulscript.WithOpLimit(opLimit),
		saulscript.WithTimeLimit(timeLimit),
	)

	if bindingsFile != "" {
		if err := loadBindings(engine, bindingsFile); err != nil {
			return err
		}
	}

	if trace {
		fmt.Fprintf(os.Stderr, "[trace] executing %s\n", filename)
	}

	result, err := engine.Eval(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, saulscript.FormatError(err, input, filename))
		return fmt.Errorf("execution failed")
	}
	if !result.Success {
		return fmt.Errorf("execution failed")
	}
	return nil
}

// loadBindings reads a YAML document of name: value pairs and binds each
// value (scalar, list, or nested mapping) into the engine as a runtime.Value,
// so a script can be parameterized without recompiling its host.
func loadBindings(engine *saulscript.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read bindings file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse bindings file %s: %w", path, err)
	}

	for name, v := range raw {
		val, err := toValue(v)
		if err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
		engine.BindValue(name, val)
	}
	return nil
}

func toValue(v any) (runtime.Value, error) {
	switch t := v.(type) {
	case nil:
		return runtime.Unit{}, nil
	case bool:
		return runtime.Bool{B: t}, nil
	case string:
		return runtime.Str{S: t}, nil
	case int:
		return runtime.Number{D: decimal.NewFromInt(int64(t))}, nil
	case int64:
		return runtime.Number{D: decimal.NewFromInt(t)}, nil
	case uint64:
		return runtime.Number{D: decimal.NewFromInt(int64(t))}, nil
	case float64:
		return runtime.Number{D: decimal.NewFromFloat(t)}, nil
	case []any:
		elems := make([]runtime.Value, len(t))
		for i, e := range t {
			ev, err := toValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return runtime.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		d := runtime.NewDict()
		for _, k := range keys {
			ev, err := toValue(t[k])
			if err != nil {
				return nil, err
			}
			d.Set(k, ev)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported binding value type %T", v)
	}
}
