package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"talibgen/internal/adapter/memstore"
	"talibgen/internal/domain"
	"talibgen/internal/usecase"
)

var (
	inspectInput  string
	inspectSource bool
	inspectJSON   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show how each declaration is classified and resolved",
	Long: `Parse the raw bindings and print every function's parameters with their role,
cleaned name and resolved host type. Nothing is written to disk.

Examples:
  talibgen inspect -i src/bindings.rs
  talibgen inspect -i src/bindings.rs --source
  talibgen inspect -i src/bindings.rs --json`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "raw bindings file or directory (required)")
	inspectCmd.Flags().BoolVar(&inspectSource, "source", false, "print the generated module sources")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON")
	inspectCmd.MarkFlagRequired("input")
}

type inspectParam struct {
	Declared string `json:"declared"`
	RawType  string `json:"raw_type"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	HostType string `json:"host_type,omitempty"`
}

type inspectFunction struct {
	Function   string         `json:"function"`
	Module     string         `json:"module,omitempty"`
	Line       int            `json:"line"`
	Parameters []inspectParam `json:"parameters"`
	Error      string         `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	text, err := readInput(inspectInput)
	if err != nil {
		return err
	}

	sink := memstore.NewSink()
	uc, _, err := newGenerateUseCase(sink, nil, true)
	if err != nil {
		return err
	}

	if inspectSource {
		result, err := uc.Generate(cmd.Context(), text, nil)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}
		printSources(cmd.OutOrStdout(), sink, result.Manifest.Modules)
		return nil
	}

	reports, err := uc.Inspect(text)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	functions := make([]inspectFunction, 0, len(reports))
	for _, r := range reports {
		functions = append(functions, toInspectFunction(r))
	}

	out := cmd.OutOrStdout()
	if inspectJSON {
		output, err := json.MarshalIndent(functions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(output))
		return nil
	}

	printFunctions(out, functions)
	return nil
}

func toInspectFunction(r usecase.SignatureReport) inspectFunction {
	f := inspectFunction{
		Function: r.Signature.Name,
		Module:   r.Artifact.Module,
		Line:     r.Signature.Line,
	}
	if r.Err != nil {
		f.Error = r.Err.Error()
	}

	type key struct {
		role domain.Role
		name string
	}
	hostTypes := make(map[key]string, len(r.Inputs)+len(r.Outputs))
	for _, p := range slices.Concat(r.Inputs, r.Outputs) {
		hostTypes[key{p.Role, p.Name}] = p.HostType
	}

	for _, c := range r.Parameters {
		f.Parameters = append(f.Parameters, inspectParam{
			Declared: c.Parameter.Name,
			RawType:  c.Parameter.RawType,
			Role:     c.Role.String(),
			Name:     c.Name,
			HostType: hostTypes[key{c.Role, c.Name}],
		})
	}
	return f
}

func printFunctions(out io.Writer, functions []inspectFunction) {
	failed := 0
	for _, f := range functions {
		fmt.Fprintf(out, "--- %s (line %d) ---\n", f.Function, f.Line)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range f.Parameters {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Declared, p.RawType, p.Role, p.Name, p.HostType)
		}
		tw.Flush()
		if f.Error != "" {
			failed++
			fmt.Fprintf(out, "  error: %s\n", f.Error)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d functions, %d would fail\n", len(functions), failed)
}

func printSources(out io.Writer, sink *memstore.Sink, modules []string) {
	for _, m := range modules {
		src, _ := sink.Artifact(m)
		fmt.Fprintf(out, "// ===== %s =====\n%s\n", m, src)
	}
	fmt.Fprintf(out, "// ===== manifest =====\n%s", sink.Manifest())
}
