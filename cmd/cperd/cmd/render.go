package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/cper"
	"github.com/ssargent/cperd/pkg/report"
)

// readRecord reads a raw record from path, or from stdin when path is "-"
func readRecord(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return raw, nil
}

// renderOptions selects the output format shared by decode and get
type renderOptions struct {
	json   bool
	indent bool
	prefix string
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Write one JSON document per record")
	cmd.Flags().Bool("indent", false, "Pretty-print JSON output")
	cmd.Flags().String("prefix", "", "Prefix for every line of text output")
}

func renderFlags(cmd *cobra.Command) renderOptions {
	asJSON, _ := cmd.Flags().GetBool("json")
	indent, _ := cmd.Flags().GetBool("indent")
	prefix, _ := cmd.Flags().GetString("prefix")
	return renderOptions{json: asJSON, indent: indent, prefix: prefix}
}

// render decodes raw tolerantly and writes it to w. Sections decoded
// before a structural fault are written before the fault is returned.
func render(w io.Writer, decoder *cper.Decoder, raw []byte, opts renderOptions) error {
	var sink report.Sink
	if opts.json {
		sink = report.NewJSONSink(w, opts.indent)
	} else {
		sink = report.NewTextSink(w, opts.prefix)
	}
	return report.Stream(sink, decoder.Walk(raw))
}

// errFailed reports that some inputs failed after all were processed;
// the per-input errors have already been printed
var errFailed = errors.New("one or more records failed")
