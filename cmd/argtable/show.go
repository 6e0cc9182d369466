package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dzonerzy/go-argparse/argparse"
	"github.com/dzonerzy/go-argparse/internal/fuzzy"
)

func newShowCommand(a *app) *cobra.Command {
	var usageOnly bool
	cmd := &cobra.Command{
		Use:   "show <table> [command...]",
		Short: "Print the help screen of a table or one of its commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			node, prog, err := descend(s, args[1:])
			if err != nil {
				return err
			}

			l := a.printer(func(int) {}).Layout()
			if usageOnly {
				fmt.Fprintln(cmd.OutOrStdout(), l.Usage(node, prog))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), l.Help(node, prog))
			return nil
		},
	}
	cmd.Flags().BoolVar(&usageOnly, "usage", false, "print only the usage line")
	return cmd
}

// descend follows a chain of command destinations from s.
func descend(s *argparse.Settings, path []string) (*argparse.Settings, string, error) {
	node, prog := s, s.ProgName()
	for _, name := range path {
		child := node.Command(name)
		if child == nil {
			var known []string
			for _, e := range node.Entries() {
				if e.Kind() == argparse.KindCommand {
					known = append(known, e.DestName)
				}
			}
			if hint := fuzzy.Suggest(name, known, 2); hint != "" {
				return nil, "", fmt.Errorf("%s has no command %q (did you mean %q?)", prog, name, hint)
			}
			return nil, "", fmt.Errorf("%s has no command %q", prog, name)
		}
		node, prog = child, prog+" "+name
	}
	return node, prog, nil
}
