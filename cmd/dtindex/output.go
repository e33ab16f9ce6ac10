package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	apperrors "dtindex/internal/errors"
)

// emit prints v as indented JSON with --json, otherwise lets table write
// aligned columns
func (c *cli) emit(v interface{}, table func(w io.Writer)) error {
	if c.asJSON {
		return c.writeJSON(v)
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func (c *cli) writeJSON(v interface{}) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// finish turns an empty view into a printed notice and a zero exit status
func (c *cli) finish(err error) error {
	var warning *apperrors.EmptyResultWarning
	if !errors.As(err, &warning) {
		return err
	}

	if c.asJSON {
		return c.writeJSON(map[string]string{"status": "empty", "notice": warning.Notice})
	}
	_, werr := fmt.Fprintln(c.stdout, warning.Notice)
	return werr
}

// num formats a statistic for the terminal; NaN prints as "-"
func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
