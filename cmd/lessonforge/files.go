package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gnemet/LessonForge/internal/pptx"
)

var (
	newTemplateOutput string
	previewOutput     string
)

var newTemplateCmd = &cobra.Command{
	Use:   "new-template",
	Short: "Write a minimal lesson template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := pptx.NewBlankTemplate(pptx.DefaultLayouts())
		if err != nil {
			return err
		}
		if dir := filepath.Dir(newTemplateOutput); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(newTemplateOutput, data, 0644); err != nil {
			return err
		}
		log.Info("Template written", "path", newTemplateOutput)
		fmt.Fprintln(cmd.OutOrStdout(), newTemplateOutput)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <deck.pptx>",
	Short: "Print the text of every slide of a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slides, err := pptx.ExtractSlideContent(args[0])
		if err != nil {
			return err
		}
		numbers := make([]int, 0, len(slides))
		for n := range slides {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)

		out := cmd.OutOrStdout()
		if jsonOutput {
			ordered := make([]pptx.SlideData, len(numbers))
			for i, n := range numbers {
				ordered[i] = slides[n]
			}
			return printJSON(out, ordered)
		}
		for _, n := range numbers {
			fmt.Fprintf(out, "--- Slide %d ---\n%s\n", n, slides[n].Text)
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <deck.pptx>",
	Short: "Render slide PNGs with LibreOffice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tempRoot := cfg.Application.Storage.Temp
		if tempRoot == "" {
			tempRoot = os.TempDir()
		}
		files, err := pptx.ExtractSlidesToPNG(cmd.Context(), args[0], previewOutput, tempRoot)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	newTemplateCmd.Flags().StringVarP(&newTemplateOutput, "output", "o", "modern_template.pptx", "Output file")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "preview", "Directory for the PNG files")
}
