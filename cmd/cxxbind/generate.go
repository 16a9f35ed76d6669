package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/cxxbind/backend"
	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/generator"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <manifest.toml>",
	Short: "Generate binding code from a declaration manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := generateOptions{manifest: args[0]}
		opts.output, _ = cmd.Flags().GetString("output")
		opts.backends, _ = cmd.Flags().GetStringSlice("backend")
		opts.print, _ = cmd.Flags().GetString("print")
		return runGenerate(cmd.Context(), current, opts, cmd.OutOrStdout())
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "bundle path (default from config)")
	generateCmd.Flags().StringSlice("backend", nil, "backends to emit (legacy|embedded)")
	generateCmd.Flags().String("print", "", "print the code of one backend instead of a summary")
}

type generateOptions struct {
	manifest string
	output   string
	print    string
	backends []string
}

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	styleColor = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
)

func runGenerate(ctx context.Context, cfg *config.Config, opts generateOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = withOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	plan, done, err := buildPlan(cfg, opts.manifest)
	if err != nil {
		return err
	}
	defer done()
	backends, err := backend.ForConfig(cfg)
	if err != nil {
		return err
	}
	outs, err := backend.EmitAll(ctx, plan, backends)
	if err != nil {
		return err
	}

	if opts.print != "" {
		for _, o := range outs {
			if string(o.Style) == opts.print {
				_, err := io.WriteString(out, o.Code())
				return err
			}
		}
		return fmt.Errorf("backend %q was not emitted", opts.print)
	}

	bundle := backend.NewBundle(plan, outs)
	if err := bundle.WriteFile(cfg.Output); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s: %d classes, %d functions, %d enums, %d exceptions\n",
		okColor.Sprint("generated"), plan.Module,
		len(plan.Classes), len(plan.Functions), len(plan.Enums), len(plan.Exceptions))
	for _, o := range bundle.Outputs {
		fmt.Fprintf(out, "  %-9s %d fragments\n", styleColor.Sprint(o.Style), len(o.Fragments))
	}
	fmt.Fprintf(out, "  %d native symbols required\n", len(bundle.Symbols))
	fmt.Fprintf(out, "wrote %s %s\n", cfg.Output, dimColor.Sprintf("(%s)", time.Since(start).Round(time.Millisecond)))
	return nil
}

// withOverrides returns a copy of cfg with command line values applied.
func withOverrides(cfg *config.Config, opts generateOptions) *config.Config {
	c := *cfg
	if opts.output != "" {
		c.Output = opts.output
	}
	if len(opts.backends) > 0 {
		c.Backends = opts.backends
	}
	return &c
}

// buildPlan loads a manifest and runs a generation session over it. The
// manifest's module name applies unless the configuration names one. done
// closes the session once the plan is no longer used.
func buildPlan(cfg *config.Config, manifest string) (plan *generator.Plan, done func(), err error) {
	list, module, err := decl.LoadManifest(manifest)
	if err != nil {
		return nil, nil, err
	}
	c := *cfg
	if c.Module == "" {
		c.Module = module
	}
	s, err := generator.NewSession(&c)
	if err != nil {
		return nil, nil, err
	}
	plan, err = s.Generate(list)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return plan, s.Close, nil
}
