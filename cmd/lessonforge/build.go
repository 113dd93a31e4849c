package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnemet/LessonForge/internal/app"
	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/engine"
	"github.com/gnemet/LessonForge/internal/imagesearch"
	"github.com/gnemet/LessonForge/internal/lesson"
)

var (
	buildOutput   string
	buildNoImages bool
)

var errAborted = errors.New("no slide could be built")

var buildCmd = &cobra.Command{
	Use:   "build <template.pptx> <slides.json>",
	Short: "Build a deck from a JSON slide list",
	Long: `Build a deck from a JSON file holding either an array of slides or an
object with a "slides" array. Each slide names a layout_id and its content.
Image values that carry only a query are resolved with the image search.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		specs, err := parseSlideSpecs(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}

		ctx := cmd.Context()
		if !buildNoImages {
			images, err := imagesearch.New(ctx, cfg.ImageSearch, log.With("component", "imagesearch"))
			if err != nil {
				return err
			}
			svc := lesson.NewService(lesson.Deps{Images: images, Log: log})
			specs = svc.ResolveImages(ctx, specs)
		}

		report, err := app.NewEngine(cfg, log).Build(ctx, args[0], specs, buildOutput)
		if err != nil {
			return err
		}
		return reportBuild(cmd.OutOrStdout(), buildOutput, report)
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", lesson.DefaultOutput, "Output file")
	buildCmd.Flags().BoolVar(&buildNoImages, "no-images", false, "Do not search for image queries")
}

// parseSlideSpecs accepts a bare array or {"slides": [...]}.
func parseSlideSpecs(data []byte) ([]content.SlideSpec, error) {
	data = bytes.TrimSpace(data)
	var specs []content.SlideSpec
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &specs); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Slides []content.SlideSpec `json:"slides"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		specs = wrapped.Slides
	}
	if len(specs) == 0 {
		return nil, errors.New("no slides")
	}
	return specs, nil
}

func reportBuild(w io.Writer, path string, report *engine.Report) error {
	if jsonOutput {
		if err := printJSON(w, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%s: %s, %d/%d slides, %d degraded\n",
			path, report.Status, report.Built(), len(report.Slides), report.Degraded())
		for _, s := range report.Slides {
			if s.Skipped {
				fmt.Fprintf(w, "  slide spec %d skipped: %s\n", s.Spec+1, s.Reason)
				continue
			}
			for _, r := range s.Results {
				if r.Status != engine.StatusFilled {
					fmt.Fprintf(w, "  slide %d [%s] %s: %s\n", s.SlideNumber, r.Key, r.Status, r.Reason)
				}
			}
			for _, k := range s.Leftovers {
				fmt.Fprintf(w, "  slide %d [%s] not placed\n", s.SlideNumber, k)
			}
		}
	}
	if report.Status == engine.DeckAborted {
		return errAborted
	}
	return nil
}
