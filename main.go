package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jvmtrace/tracedb"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the jvmtrace command writing the report to stdout and
// progress to stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	def := DefaultConfig()
	var (
		configPath string
		flagCfg    Config
	)
	cmd := &cobra.Command{
		Use:   "jvmtrace -d <traces.db>",
		Short: "Show the call context around a sink method in a JVMTI trace database",
		Long: `jvmtrace reads a SQLite database written by the JVMTI tracing agent, finds every
invocation of a sink method (BeanELResolver.getValue by default) and prints the
surrounding trace rows of the invoking thread, indented by caller.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if configPath != "" {
				loaded, err := LoadConfig(configPath, cfg)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			overlayFlags(cmd, &cfg, flagCfg)
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&flagCfg.Database, "database", "d", "", "Path to the SQLite trace database")
	f.StringVarP(&configPath, "config", "c", "", "YAML or TOML file with report settings")
	f.StringVar(&flagCfg.Sink.ClassName, "class", def.Sink.ClassName, "Sink class in JVM internal form")
	f.StringVar(&flagCfg.Sink.MethodName, "method", def.Sink.MethodName, "Sink method name")
	f.Int64Var(&flagCfg.Thread, "thread", 0, "Only report this thread id (0 = every thread)")
	f.Int64Var(&flagCfg.Center, "center", 0, "Center the window on this trace id (requires --thread)")
	f.Int64Var(&flagCfg.Radius, "radius", def.Radius, "Window radius in trace ids")
	f.StringVar(&flagCfg.Renderer, "renderer", def.Renderer, "Indentation renderer: heuristic or tree")
	f.StringVar(&flagCfg.Indent, "indent", def.Indent, "Indentation unit")
	f.StringVar(&flagCfg.Color, "color", def.Color, "Highlight sink rows (auto|on|off)")
	f.BoolVar(&flagCfg.CheckSchema, "check-schema", false, "Verify the trace schema before querying")
	f.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "Print detailed progress")
	return cmd
}

// overlayFlags copies every flag the user set explicitly from src into cfg.
func overlayFlags(cmd *cobra.Command, cfg *Config, src Config) {
	set := cmd.Flags().Changed
	if set("database") {
		cfg.Database = src.Database
	}
	if set("class") {
		cfg.Sink.ClassName = src.Sink.ClassName
	}
	if set("method") {
		cfg.Sink.MethodName = src.Sink.MethodName
	}
	if set("thread") {
		cfg.Thread = src.Thread
	}
	if set("center") {
		cfg.Center = src.Center
	}
	if set("radius") {
		cfg.Radius = src.Radius
	}
	if set("renderer") {
		cfg.Renderer = src.Renderer
	}
	if set("indent") {
		cfg.Indent = src.Indent
	}
	if set("color") {
		cfg.Color = src.Color
	}
	if set("check-schema") {
		cfg.CheckSchema = src.CheckSchema
	}
	if set("verbose") {
		cfg.Verbose = src.Verbose
	}
}

// run validates cfg, opens the database read-only and writes the report.
func run(ctx context.Context, cfg Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	prog := NewProgress(stderr, cfg.Verbose)
	prog.Verbose("Opening %s", cfg.Database)

	renderer, err := tracedb.RendererByName(cfg.Renderer, cfg.Indent)
	if err != nil {
		return err
	}
	store, err := tracedb.OpenConnStore(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report := &Report{
		Store:     store,
		Sink:      cfg.Sink,
		Thread:    cfg.Thread,
		Center:    cfg.Center,
		Radius:    cfg.Radius,
		Renderer:  renderer,
		Check:     cfg.CheckSchema,
		Highlight: highlighter(cfg.Color, stdout),
		Progress:  prog,
	}
	return report.Run(ctx, stdout)
}

// highlighter returns the sink colour for mode, or nil when output stays plain.
// auto colours only a terminal stdout.
func highlighter(mode string, out io.Writer) *color.Color {
	switch mode {
	case colorOn:
	case colorAuto:
		f, ok := out.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return nil
		}
	default:
		return nil
	}
	c := color.New(color.FgRed, color.Bold)
	c.EnableColor()
	return c
}
