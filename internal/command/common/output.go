package common

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Row is a single line of a command output. Keys gives the column order.
type Row struct {
	Keys   []string
	Values map[string]any
}

func WriteRows(w io.Writer, format string, rows ...Row) error {
	switch format {
	case FormatYAML:
		docs := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			docs = append(docs, r.Values)
		}

		encoder := yaml.NewEncoder(w)
		defer encoder.Close()

		if err := encoder.Encode(docs); err != nil {
			return errors.WithStack(err)
		}

		return nil

	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

		for i, r := range rows {
			if i == 0 {
				for j, k := range r.Keys {
					if j > 0 {
						fmt.Fprint(tw, "\t")
					}
					fmt.Fprint(tw, k)
				}
				fmt.Fprintln(tw)
			}

			for j, k := range r.Keys {
				if j > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, formatValue(r.Values[k]))
			}
			fmt.Fprintln(tw)
		}

		if err := tw.Flush(); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}
}

func formatValue(v any) string {
	if v == nil {
		return "-"
	}

	return fmt.Sprintf("%v", v)
}
