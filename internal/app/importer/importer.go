// Package importer bulk-submits URLs listed in a YAML file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sifan077/LinkDesk/internal/app/service"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the YAML document accepted by the importer.
//
//	urls:
//	  - name: Shop
//	    original: https://shop.example.com
//	    site_name: Example Shop
type File struct {
	URLs []Entry `yaml:"urls"`
}

// Entry is one URL to submit.
type Entry struct {
	Name     string `yaml:"name"`
	Original string `yaml:"original"`
	SiteName string `yaml:"site_name"`
}

// Adder submits a single URL.
type Adder interface {
	Add(ctx context.Context, input service.AddURLInput) (string, error)
}

// Result summarizes an import run.
type Result struct {
	Created []string
	Skipped int
	Failed  []Failure
}

// Failure records an entry the store refused.
type Failure struct {
	Position int // 1-based index in the file
	Original string
	Err      error
}

// Load reads and parses the import file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an import document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse import yaml: %w", err)
	}
	return &f, nil
}

// Run submits every entry in order. Entries without an original URL are
// skipped; a failing entry does not stop the run unless ctx is done.
func Run(ctx context.Context, adder Adder, f *File, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var res Result
	for i, e := range f.URLs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		original := strings.TrimSpace(e.Original)
		if original == "" {
			res.Skipped++
			continue
		}

		id, err := adder.Add(ctx, service.AddURLInput{
			Name:     e.Name,
			Original: original,
			SiteName: e.SiteName,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			logger.Warn("import entry failed", zap.Int("entry", i), zap.String("original", original), zap.Error(err))
			res.Failed = append(res.Failed, Failure{Position: i + 1, Original: original, Err: err})
			continue
		}
		res.Created = append(res.Created, id)
	}

	logger.Info("import finished",
		zap.Int("created", len(res.Created)),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}
