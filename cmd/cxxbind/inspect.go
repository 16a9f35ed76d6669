package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/overload"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <manifest.toml>",
	Short: "Show overload sets and try call resolution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interactive, _ := cmd.Flags().GetBool("interactive")
		set, _ := cmd.Flags().GetString("set")
		callArgs, _ := cmd.Flags().GetString("args")

		plan, done, err := buildPlan(current, args[0])
		if err != nil {
			return err
		}
		defer done()

		if interactive {
			return runInteractive(args[0], plan)
		}
		if set == "" {
			listPlan(cmd.OutOrStdout(), plan)
			return nil
		}
		return explainCall(cmd.OutOrStdout(), plan, set, callArgs)
	},
}

func init() {
	inspectCmd.Flags().BoolP("interactive", "i", false, "browse overload sets in a terminal UI")
	inspectCmd.Flags().String("set", "", "overload set to resolve against, e.g. Counter.describe")
	inspectCmd.Flags().String("args", "", "comma-separated call arguments, e.g. 1, 2.5, \"s\", None")
}

var (
	nameColor = color.New(color.FgGreen)
	typeColor = color.New(color.FgCyan)
	failColor = color.New(color.FgRed)
)

// overloadSet is a callable host name and its overloads.
type overloadSet struct {
	name string
	fn   *generator.Function
}

// overloadSets lists every function, constructor, method and static of a
// plan by host name.
func overloadSets(plan *generator.Plan) []overloadSet {
	var out []overloadSet
	for _, f := range plan.Functions {
		out = append(out, overloadSet{name: f.Name, fn: f})
	}
	for _, c := range plan.Classes {
		if c.Constructors != nil {
			out = append(out, overloadSet{name: c.Name, fn: c.Constructors})
		}
		for _, f := range c.Methods {
			out = append(out, overloadSet{name: c.Name + "." + f.Name, fn: f})
		}
		for _, f := range c.Statics {
			out = append(out, overloadSet{name: c.Name + "." + f.Name, fn: f})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func findSet(plan *generator.Plan, name string) (overloadSet, bool) {
	for _, s := range overloadSets(plan) {
		if s.name == name {
			return s, true
		}
	}
	return overloadSet{}, false
}

func listPlan(out io.Writer, plan *generator.Plan) {
	fmt.Fprintf(out, "module %s\n", nameColor.Sprint(plan.Module))
	for _, c := range plan.Classes {
		line := "class " + nameColor.Sprint(c.Name) + " " + typeColor.Sprint(c.Cpp)
		if c.Base != "" {
			line += " : " + c.Base
		}
		fmt.Fprintln(out, line)
		for _, f := range c.Fields {
			fmt.Fprintf(out, "    .%s %s\n", f.Name, typeColor.Sprint(f.Mapping.CppType))
		}
	}
	for _, e := range plan.Enums {
		d := e.Descriptor
		fmt.Fprintf(out, "enum %s %s (%s, %d entries)\n", nameColor.Sprint(d.HostName), typeColor.Sprint(d.Name), d.Mode, len(d.Entries))
	}
	for _, e := range plan.Exceptions {
		fmt.Fprintf(out, "exception %s %s (%s)\n", nameColor.Sprint(e.Name), typeColor.Sprint(e.Cpp), e.Category)
	}
	fmt.Fprintln(out)
	for _, s := range overloadSets(plan) {
		fmt.Fprintf(out, "%s\n", nameColor.Sprint(s.name))
		for _, c := range s.fn.Set.Candidates() {
			fmt.Fprintf(out, "    %s\n", candidateLine(c))
		}
	}
}

func candidateLine(c *overload.Candidate) string {
	line := c.Decl.Name + typeColor.Sprint(c.Signature())
	if c.Synthetic {
		line += dimColor.Sprint(" [defaults]")
	}
	return line
}

func explainCall(out io.Writer, plan *generator.Plan, name, raw string) error {
	s, ok := findSet(plan, name)
	if !ok {
		return fmt.Errorf("no overload set named %q", name)
	}
	args, err := parseArgs(raw)
	if err != nil {
		return err
	}
	chosen, resolveErr := s.fn.Set.Resolve(args)
	for _, sc := range s.fn.Set.Explain(args) {
		mark := "  "
		if sc.Candidate == chosen {
			mark = okColor.Sprint("> ")
		}
		fmt.Fprintf(out, "%s%s  %s\n", mark, candidateLine(sc.Candidate), scoreText(sc, len(args), failColor.Sprint))
	}
	if resolveErr != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, failColor.Sprint(resolveErr.Error()))
	}
	return nil
}

// scoreText describes the outcome of ranking one candidate against nargs
// arguments. fail renders rejections.
func scoreText(sc overload.Score, nargs int, fail func(...any) string) string {
	switch {
	case len(sc.Candidate.Params) != nargs:
		return fail(fmt.Sprintf("takes %d arguments", len(sc.Candidate.Params)))
	case sc.Failed >= 0:
		p := sc.Candidate.Params[sc.Failed]
		return fail(fmt.Sprintf("argument %d is not %s", sc.Failed+1, p.Mapping.CppType))
	}
	return sc.Rank.String()
}

// parseArgs reads host values from a comma-separated list: None, true,
// false, integers, floats and strings, quoted or bare.
func parseArgs(raw string) ([]any, error) {
	var (
		out     []any
		field   strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() error {
		s := strings.TrimSpace(field.String())
		field.Reset()
		if s == "" {
			return fmt.Errorf("empty argument in %q", raw)
		}
		v, err := parseArg(s)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	for _, r := range raw {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		field.WriteRune(r)
	}
	if quoted {
		return nil, fmt.Errorf("unterminated string in %q", raw)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseArg(s string) (any, error) {
	switch s {
	case "None", "none", "nil":
		return nil, nil
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	}
	if strings.HasPrefix(s, `"`) {
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", s, err)
		}
		return v, nil
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return s, nil
}
