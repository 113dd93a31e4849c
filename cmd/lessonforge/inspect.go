package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gnemet/LessonForge/internal/app"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <template.pptx>",
	Short: "List the layouts and placeholders of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layouts, err := app.NewEngine(cfg, log).Inspect(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, layouts)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, l := range layouts {
			fmt.Fprintf(w, "Layout %d\t%s\n", l.ID, l.Name)
			for _, ph := range l.Placeholders {
				fmt.Fprintf(w, "  [%d]\t%s\t%s\t%s\n", ph.Index, ph.Kind, ph.Type, ph.Name)
			}
		}
		return w.Flush()
	},
}
