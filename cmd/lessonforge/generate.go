package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnemet/LessonForge/internal/app"
	"github.com/gnemet/LessonForge/internal/content"
	"github.com/gnemet/LessonForge/internal/lesson"
)

var (
	genTopic    string
	genGrade    string
	genDuration string
	genTemplate string
	genOutput   string
	genOneShot  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a lesson with the configured AI provider and build it",
	Long: `Draft a lesson on a catalog template and build the deck into the output
storage directory. By default the outline is drafted first and every slide is
written in its own call; --one-shot asks for the whole lesson at once.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, log, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		req := lesson.OutlineRequest{
			Topic:            genTopic,
			Grade:            genGrade,
			Duration:         genDuration,
			TemplateFilename: genTemplate,
		}
		specs, err := draftLesson(ctx, a.Service, req, genOneShot)
		if err != nil {
			return err
		}

		res, err := a.Service.Build(ctx, lesson.BuildRequest{
			TemplateFilename: req.TemplateFilename,
			Slides:           specs,
			OutputFilename:   genOutput,
			Topic:            req.Topic,
		})
		if err != nil {
			return err
		}
		return reportBuild(cmd.OutOrStdout(), res.Path, res.Report)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genTopic, "topic", "t", "", "Lesson topic")
	f.StringVarP(&genGrade, "grade", "g", "", "Grade level")
	f.StringVar(&genDuration, "duration", lesson.DefaultDuration, "Lesson duration")
	f.StringVar(&genTemplate, "template", lesson.DefaultTemplate, "Catalog template file name")
	f.StringVarP(&genOutput, "output", "o", "", "Output file name (default from config)")
	f.BoolVar(&genOneShot, "one-shot", false, "Draft outline and content in a single call")
	generateCmd.MarkFlagRequired("topic")
}

func draftLesson(ctx context.Context, svc *lesson.Service, req lesson.OutlineRequest, oneShot bool) ([]content.SlideSpec, error) {
	if oneShot {
		planned, err := svc.Presentation(ctx, req)
		if err != nil {
			return nil, err
		}
		specs := make([]content.SlideSpec, len(planned))
		for i, p := range planned {
			specs[i] = p.Spec()
		}
		return specs, nil
	}

	outline, err := svc.Outline(ctx, req)
	if err != nil {
		return nil, err
	}
	specs := make([]content.SlideSpec, 0, len(outline))
	for _, o := range outline {
		m, err := svc.SlideContent(ctx, lesson.SlideRequest{
			Title:            o.Title,
			Purpose:          o.Purpose,
			Grade:            req.Grade,
			LayoutID:         o.LayoutID,
			TemplateFilename: req.TemplateFilename,
		})
		if errors.Is(err, lesson.ErrInvalidLayout) {
			fmt.Fprintf(os.Stderr, "skipping slide %d: %v\n", o.SlideNumber, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", o.SlideNumber, err)
		}
		specs = append(specs, content.SlideSpec{LayoutID: o.LayoutID, Content: m})
	}
	if len(specs) == 0 {
		return nil, errors.New("the outline produced no usable slides")
	}
	return specs, nil
}
