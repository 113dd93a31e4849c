package pptx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ExtractSlidesToPNG converts a PPTX file to a series of PNG images using
// LibreOffice and pdftoppm. Intermediate PDFs go to a unique directory under tempRoot.
func ExtractSlidesToPNG(ctx context.Context, pptxPath, outputDir, tempRoot string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	tempPDFDir := filepath.Join(tempRoot, "pdf")
	if err := os.MkdirAll(tempPDFDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp pdf dir: %w", err)
	}
	taskDir, err := os.MkdirTemp(tempPDFDir, "task_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create task dir in %s: %w", tempPDFDir, err)
	}
	defer os.RemoveAll(taskDir)

	// Step 1: PPTX to PDF using LibreOffice
	cmd := exec.CommandContext(ctx, "libreoffice", "--headless", "--convert-to", "pdf", "--outdir", taskDir, pptxPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("libreoffice conversion failed: %w (output: %s)", err, string(output))
	}

	pdfName := filepath.Base(pptxPath)
	pdfName = pdfName[:len(pdfName)-len(filepath.Ext(pdfName))] + ".pdf"
	pdfPath := filepath.Join(taskDir, pdfName)

	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		var found []string
		if entries, err := os.ReadDir(taskDir); err == nil {
			for _, entry := range entries {
				found = append(found, entry.Name())
			}
		}
		return nil, fmt.Errorf("pdf file not found after conversion (expected %s, found: %v)", pdfName, found)
	}

	// Step 2: PDF to PNG using pdftoppm
	outputBase := filepath.Join(outputDir, "slide")
	cmd = exec.CommandContext(ctx, "pdftoppm", "-png", "-rx", "150", "-ry", "150", pdfPath, outputBase)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm conversion failed: %w", err)
	}

	return renumberPreviews(outputDir)
}

// renumberPreviews renames slide-N.png to slide-000N.png so the names sort numerically.
func renumberPreviews(outputDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(outputDir, "slide-*.png"))
	if err != nil {
		return nil, err
	}

	re := regexp.MustCompile(`slide-(\d+)\.png$`)
	for _, f := range files {
		matches := re.FindStringSubmatch(f)
		if len(matches) > 1 {
			num, _ := strconv.Atoi(matches[1])
			newPath := filepath.Join(outputDir, fmt.Sprintf("slide-%04d.png", num))
			if newPath != f {
				if err := os.Rename(f, newPath); err != nil {
					return nil, err
				}
			}
		}
	}

	finalFiles, err := filepath.Glob(filepath.Join(outputDir, "slide-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(finalFiles)
	return finalFiles, nil
}
