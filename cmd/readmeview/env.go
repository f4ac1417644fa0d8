package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-readmeview/internal/export"
)

// PDFExporter turns a host page into PDF bytes.
type PDFExporter interface {
	ToPDF(ctx context.Context, page string, opts export.Options) ([]byte, error)
	Close() error
}

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the PDF backend.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	NewExporter func(timeout time.Duration) PDFExporter
}

// DefaultEnv returns the production environment backed by a headless browser.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewExporter: func(timeout time.Duration) PDFExporter {
			return export.New(timeout)
		},
	}
}
