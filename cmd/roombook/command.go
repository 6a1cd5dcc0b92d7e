package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is one node of the roombook command tree. Leaf commands set Run;
// group commands set Subcommands.
type command struct {
	Name        string
	Summary     string
	Usage       string
	Flags       func() *pflag.FlagSet
	Subcommands []*command
	Run         func(ctx context.Context, flags *pflag.FlagSet, args []string) error

	parent *command
}

func (c *command) execute(ctx context.Context, args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp(help)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			c.printHelp(help)
			return fmt.Errorf("subcommand required\n\nRun '%s --help' for usage.", c.fullName())
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.execute(ctx, args[1:], help)
			}
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", args[0], c.fullName())
	}

	var flags *pflag.FlagSet
	if c.Flags != nil {
		flags = c.Flags()
		flags.SetOutput(io.Discard)
		if err := flags.Parse(args); err != nil {
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
		}
		args = flags.Args()
	}
	return c.Run(ctx, flags, args)
}

func (c *command) printHelp(w io.Writer) {
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", c.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.fullName())
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		var flagHelp strings.Builder
		flags := c.Flags()
		flags.SetOutput(&flagHelp)
		flags.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}
}

func (c *command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// exactArgs returns an error unless args holds exactly the named positionals.
func exactArgs(args []string, names ...string) error {
	if len(args) == len(names) {
		return nil
	}
	return fmt.Errorf("expected arguments: %s", strings.Join(names, " "))
}
