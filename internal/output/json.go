// Package output delivers result records to the command line host.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/akl7777777/ippure-info/internal/model"
)

// JSON writes each result record as one JSON document.
type JSON struct {
	w      io.Writer
	indent bool
}

// NewJSON indents the output when w is a terminal.
func NewJSON(w io.Writer) *JSON {
	indent := false
	if f, ok := w.(*os.File); ok {
		indent = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &JSON{w: w, indent: indent}
}

func (j *JSON) Complete(_ context.Context, result model.Result) error {
	encoder := json.NewEncoder(j.w)
	encoder.SetEscapeHTML(false)
	if j.indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
