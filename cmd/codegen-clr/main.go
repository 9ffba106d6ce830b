package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tinco/rustc-codegen-clr/pkg/cil"
	"github.com/tinco/rustc-codegen-clr/pkg/cilgen"
	"github.com/tinco/rustc-codegen-clr/pkg/cilopt"
	"github.com/tinco/rustc-codegen-clr/pkg/mir"
	"github.com/tinco/rustc-codegen-clr/pkg/mirload"
	"github.com/tinco/rustc-codegen-clr/pkg/typelower"
)

var version = "0.1.0"

// Debug flags for dumping intermediate representations
var (
	dCIL   bool
	dTypes bool
	dMIR   bool
)

// Lowering options
var (
	tunnel        bool
	pruneHandlers bool
	keepGoing     bool
	verbose       bool
	logFormat     string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that also accept single-dash style
var debugFlagNames = []string{"dcil", "dtypes", "dmir"}

// normalizeFlags converts single-dash debug flags like -dcil to --dcil
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

// wordSepNormalize lets --prune_handlers stand for --prune-handlers
func wordSepNormalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codegen-clr [file]",
		Short: "codegen-clr lowers MIR function bodies to CIL",
		Long: `codegen-clr reads a YAML description of MIR function bodies and
lowers each function into CIL methods: places become address
computations, statements become roots, and cleanup blocks become
exception handler regions.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			log, err := newLogger(errOut, logFormat, verbose)
			if err != nil {
				fmt.Fprintf(errOut, "codegen-clr: %v\n", err)
				return err
			}

			if dMIR {
				return doMIR(filename, out, errOut)
			}

			if dTypes {
				return doTypes(filename, out, errOut)
			}

			if dCIL {
				return doCIL(filename, out, errOut, log)
			}

			prog, err := loadFile(filename, errOut)
			if err != nil {
				return err
			}
			methods, err := lowerProgram(cil.NewAssembly(), prog, errOut, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(errOut, "codegen-clr: lowered %d of %d functions from %s\n", len(methods), len(prog.Functions), filename)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.Flags().SetNormalizeFunc(wordSepNormalize)

	// Add debug flags
	rootCmd.Flags().BoolVarP(&dCIL, "dcil", "", false, "Dump CIL")
	rootCmd.Flags().BoolVarP(&dTypes, "dtypes", "", false, "Dump the type lowering table")
	rootCmd.Flags().BoolVarP(&dMIR, "dmir", "", false, "Dump the loaded MIR")

	// Add lowering flags
	rootCmd.Flags().BoolVar(&tunnel, "tunnel", false, "Tunnel branches through jump-only blocks and drop unreachable blocks")
	rootCmd.Flags().BoolVar(&pruneHandlers, "prune-handlers", false, "Remove handlers that only rethrow")
	rootCmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Skip functions that cannot be lowered")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log lowering progress")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	return rootCmd
}

// newLogger builds the diagnostics logger on w: Debug with verbose, Warn
// otherwise
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// loadFile reads a MIR program
func loadFile(filename string, errOut io.Writer) (*mir.Program, error) {
	prog, err := mirload.LoadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "codegen-clr: %v\n", err)
		return nil, err
	}
	return prog, nil
}

// lowerProgram lowers every function and runs the requested clean-ups
func lowerProgram(asm *cil.Assembly, prog *mir.Program, errOut io.Writer, log *slog.Logger) ([]*cil.Method, error) {
	methods, err := cilgen.LowerProgram(asm, prog, cilgen.Options{Logger: log, KeepGoing: keepGoing})
	if err != nil {
		fmt.Fprintf(errOut, "codegen-clr: %v\n", err)
		return nil, err
	}
	for _, m := range methods {
		if pruneHandlers {
			n := cilopt.PruneRethrowHandlers(asm, m)
			log.Debug("optimization pass complete", "pass", "prune-handlers", "function", m.Name, "changes", n)
		}
		if tunnel {
			n := cilopt.Tunnel(asm, m)
			log.Debug("optimization pass complete", "pass", "tunnel", "function", m.Name, "changes", n)
			n = cilopt.RemoveUnreachable(asm, m)
			log.Debug("optimization pass complete", "pass", "remove-unreachable", "function", m.Name, "changes", n)
		}
	}
	stats := asm.Stats()
	log.Debug("assembly", "types", stats.Types, "nodes", stats.Nodes, "roots", stats.Roots)
	return methods, nil
}

// doCIL lowers the file and writes the CIL to a .cil file
func doCIL(filename string, out, errOut io.Writer, log *slog.Logger) error {
	prog, err := loadFile(filename, errOut)
	if err != nil {
		return err
	}

	asm := cil.NewAssembly()
	methods, err := lowerProgram(asm, prog, errOut, log)
	if err != nil {
		return err
	}

	// Compute output filename: input.yaml -> input.cil
	outputFilename := cilOutputFilename(filename)

	// Create output file
	outFile, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "codegen-clr: error creating %s: %v\n", outputFilename, err)
		return err
	}
	defer outFile.Close()

	// Print the methods to the file
	printer := cil.NewPrinter(outFile, asm)
	printer.PrintMethods(methods)

	// Also print to stdout for convenience
	printer = cil.NewPrinter(out, asm)
	printer.PrintMethods(methods)

	return nil
}

// doMIR writes the loaded program back out as MIR text to a .mir file
func doMIR(filename string, out, errOut io.Writer) error {
	prog, err := loadFile(filename, errOut)
	if err != nil {
		return err
	}

	outputFilename := mirOutputFilename(filename)
	outFile, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "codegen-clr: error creating %s: %v\n", outputFilename, err)
		return err
	}
	defer outFile.Close()

	mir.NewPrinter(outFile).PrintProgram(prog)
	mir.NewPrinter(out).PrintProgram(prog)
	return nil
}

// doTypes writes the type lowering table to a .types file
func doTypes(filename string, out, errOut io.Writer) error {
	prog, err := loadFile(filename, errOut)
	if err != nil {
		return err
	}

	entries := typelower.Table(cil.NewAssembly(), prog)

	outputFilename := typesOutputFilename(filename)
	outFile, err := os.Create(outputFilename)
	if err != nil {
		fmt.Fprintf(errOut, "codegen-clr: error creating %s: %v\n", outputFilename, err)
		return err
	}
	defer outFile.Close()

	typelower.PrintTable(outFile, entries)
	typelower.PrintTable(out, entries)
	return nil
}

// trimInputExt strips the .yaml or .yml extension of an input file
func trimInputExt(filename string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(filename, ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}

// cilOutputFilename returns the output filename for -dcil
func cilOutputFilename(filename string) string {
	return trimInputExt(filename) + ".cil"
}

// mirOutputFilename returns the output filename for -dmir
func mirOutputFilename(filename string) string {
	return trimInputExt(filename) + ".mir"
}

// typesOutputFilename returns the output filename for -dtypes
func typesOutputFilename(filename string) string {
	return trimInputExt(filename) + ".types"
}
