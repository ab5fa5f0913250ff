package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ccrisc/yaml-traslator/fsutil"
	"github.com/ccrisc/yaml-traslator/tree"
	"github.com/ccrisc/yaml-traslator/yamlfile"
)

// FileTask names one source file and its translated counterpart.
type FileTask struct {
	SourcePath string
	OutputPath string
	SourceLang string
	TargetLang string
}

// TranslateFile runs the translation for one YAML file and writes the
// result. The output is the source document with translated values merged
// in, so key order, comments and non-string leaves follow the source. A
// Rails-style locale root is renamed to the target language.
//
// The output is written after a halt or cancellation too, so every key in
// the progress file has its text on disk. A source that cannot be loaded
// fails before any backend call.
func TranslateFile(ctx context.Context, task FileTask, client Translator, opts Options) (*Result, error) {
	doc, err := yamlfile.ParseFile(task.SourcePath, task.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	src, err := doc.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}

	if opts.Previous == nil && !opts.Retranslate && fsutil.FileExists(task.OutputPath) {
		if prev, err := loadPrevious(task); err != nil {
			opts.warn("ignoring existing output: %v", err)
		} else {
			opts.Previous = prev
		}
	}

	res, runErr := Run(ctx, src, client, opts)
	if res == nil {
		return nil, runErr
	}

	if n := doc.Merge(res.Translated); n > 0 {
		opts.log("merged %d values into %s", n, task.OutputPath)
	}
	doc.SetLocale(task.TargetLang)
	if err := doc.WriteFile(task.OutputPath); err != nil {
		return res, errors.Join(runErr, fmt.Errorf("writing %s: %w", task.OutputPath, err))
	}
	return res, runErr
}

func loadPrevious(task FileTask) (*tree.Map, error) {
	prev, err := yamlfile.ParseFile(task.OutputPath, task.TargetLang)
	if err != nil {
		return nil, err
	}
	return prev.Tree()
}
