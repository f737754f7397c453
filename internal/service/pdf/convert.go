package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrEngineUnavailable = errors.New("document engine unavailable")

// Converter конвертирует DOCX в PDF через LibreOffice в headless-режиме.
type Converter struct {
	binary  string
	timeout time.Duration

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewConverter(binary string, timeout time.Duration) *Converter {
	if binary == "" {
		binary = "libreoffice"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Converter{
		binary:   binary,
		timeout:  timeout,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// Convert пишет PDF рядом с docx или по пути pdfPath, если он задан.
func (c *Converter) Convert(ctx context.Context, docxPath, pdfPath string) (string, error) {
	const op = "service.pdf.Convert"

	bin, err := c.lookPath(c.binary)
	if err != nil {
		// на некоторых системах бинарь называется soffice
		if alt, altErr := c.lookPath("soffice"); altErr == nil {
			bin = alt
		} else {
			return "", fmt.Errorf("%s: %s: %w", op, c.binary, ErrEngineUnavailable)
		}
	}

	outDir := filepath.Dir(docxPath)
	if pdfPath != "" {
		outDir = filepath.Dir(pdfPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%s: mkdir: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := c.command(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %v: %s", op, err, strings.TrimSpace(string(out)))
	}

	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))+".pdf")
	if pdfPath != "" && pdfPath != produced {
		if err := os.Rename(produced, pdfPath); err != nil {
			return "", fmt.Errorf("%s: rename: %w", op, err)
		}
		produced = pdfPath
	}

	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("%s: output missing: %w", op, err)
	}
	return produced, nil
}
