package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dtindex/internal/config"
	"dtindex/internal/dataset"
	"dtindex/internal/exporter"
	"dtindex/pkg/contracts"
	"dtindex/pkg/contracts/domain"
)

func (c *cli) entitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the companies in the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entities, err := c.service.Entities(cmd.Context())
			if err != nil {
				return c.finish(err)
			}
			return c.emit(entities, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME")
				for _, e := range entities {
					fmt.Fprintf(w, "%s\t%s\n", e.ID, e.Name)
				}
			})
		},
	}
}

func (c *cli) overviewCmd() *cobra.Command {
	var (
		filter    filterFlags
		highlight []int
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarise one company over the selected years",
		Long: `Overview prints the latest, highest, lowest and mean index of the company
selected with --entity, the direction of the latest value against the period
mean, and the yearly series. Years passed with --highlight are marked; without
the flag every year is highlighted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}
			overview, err := c.service.Overview(cmd.Context(), spec, highlight)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(overview, func(w io.Writer) { writeOverview(w, overview) })
		},
	}
	filter.register(cmd)
	cmd.Flags().IntSliceVar(&highlight, "highlight", nil, "years to mark in the series, e.g. 2019,2020")
	return cmd
}

func writeOverview(w io.Writer, o domain.Overview) {
	fmt.Fprintf(w, "Company\t%s %s\n", o.EntityID, o.EntityName)
	fmt.Fprintf(w, "Years\t%s (%d observations)\n", o.YearRange, o.Observations)
	fmt.Fprintf(w, "Latest\t%s\t%s\n", num(o.Latest), o.Direction)
	fmt.Fprintf(w, "Max\t%s\n", num(o.Max))
	fmt.Fprintf(w, "Min\t%s\n", num(o.Min))
	fmt.Fprintf(w, "Mean\t%s\n", num(o.Mean))
	fmt.Fprintln(w)

	marked := make(map[int]bool, len(o.Highlighted))
	for _, p := range o.Highlighted {
		marked[p.Year] = true
	}
	fmt.Fprintln(w, "YEAR\tVALUE\t")
	for _, p := range o.Series {
		mark := ""
		if marked[p.Year] {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.Year, num(p.Value), mark)
	}
}

func (c *cli) describeCmd() *cobra.Command {
	var (
		filter filterFlags
		dims   []string
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Descriptive statistics of the filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			stats, err := c.service.Describe(cmd.Context(), spec, dims)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(stats, func(w io.Writer) {
				fmt.Fprintln(w, "DIMENSION\tCOUNT\tMEAN\tSTD\tMIN\tQ1\tMEDIAN\tQ3\tMAX")
				for _, s := range stats {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						s.Dimension, s.Count,
						num(float64(s.Mean)), num(float64(s.Std)), num(float64(s.Min)),
						num(float64(s.Q1)), num(float64(s.Median)), num(float64(s.Q3)), num(float64(s.Max)))
				}
			})
		},
	}
	filter.register(cmd)
	cmd.Flags().StringSliceVar(&dims, "dim", nil, "dimensions to describe (default every dimension)")
	return cmd
}

func (c *cli) trendCmd() *cobra.Command {
	var (
		filter filterFlags
		dims   []string
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Least-squares trend of each dimension against year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			trends, err := c.service.Trend(cmd.Context(), spec, dims)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(trends, func(w io.Writer) {
				fmt.Fprintln(w, "DIMENSION\tN\tFROM\tTO\tSTART\tEND\tGROWTH %\tSLOPE\tR2")
				for _, t := range trends {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
						t.Dimension, t.Observations, t.StartYear, t.EndYear,
						num(t.StartValue), num(t.EndValue), num(t.GrowthRate),
						num(t.Slope), num(t.RSquared))
				}
			})
		},
	}
	filter.register(cmd)
	cmd.Flags().StringSliceVar(&dims, "dim", nil, "dimensions to fit (default every dimension)")
	return cmd
}

func (c *cli) correlationCmd() *cobra.Command {
	var (
		filter filterFlags
		dims   []string
	)

	cmd := &cobra.Command{
		Use:   "correlation",
		Short: "Pearson correlation matrix of the filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			matrix, err := c.service.Correlation(cmd.Context(), spec, dims)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(matrix, func(w io.Writer) {
				fmt.Fprintf(w, "\t%s\n", strings.Join(matrix.Dimensions, "\t"))
				for i, dim := range matrix.Dimensions {
					cells := make([]string, len(matrix.Values[i]))
					for j, v := range matrix.Values[i] {
						cells[j] = num(float64(v))
					}
					fmt.Fprintf(w, "%s\t%s\n", dim, strings.Join(cells, "\t"))
				}
			})
		},
	}
	filter.register(cmd)
	cmd.Flags().StringSliceVar(&dims, "dim", nil, "dimensions to correlate (default every dimension)")
	return cmd
}

func (c *cli) forecastCmd() *cobra.Command {
	var (
		filter  filterFlags
		dim     string
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Extend the linear trend of one dimension past the last observed year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			result, err := c.service.Forecast(cmd.Context(), spec, dim, horizon)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(result, func(w io.Writer) {
				fmt.Fprintf(w, "%s, last observed %d, slope %s\n", result.Dimension, result.LastObservedYear, num(result.Slope))
				fmt.Fprintln(w, "YEAR\tFORECAST")
				for _, p := range result.Points {
					fmt.Fprintf(w, "%d\t%s\n", p.Year, num(p.Value))
				}
			})
		},
	}
	filter.register(cmd)
	cmd.Flags().StringVar(&dim, "dim", domain.DimensionIndex, "dimension to forecast")
	cmd.Flags().IntVar(&horizon, "horizon", config.DefaultForecastHorizon,
		fmt.Sprintf("years to project, %d to %d", config.MinForecastHorizon, config.MaxForecastHorizon))
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var (
		ids      []string
		dim      string
		from, to int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Align one dimension of several companies year by year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			normalized := make([]string, 0, len(ids))
			for _, id := range ids {
				if id = strings.TrimSpace(id); id != "" {
					normalized = append(normalized, dataset.NormalizeID(id))
				}
			}

			table, err := c.service.Compare(cmd.Context(), normalized, dim, from, to)
			if err != nil {
				return c.finish(err)
			}
			return c.emit(table, func(w io.Writer) { writeComparison(w, table) })
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "company codes to compare, e.g. 600519,000001")
	cmd.Flags().StringVar(&dim, "dim", domain.DimensionIndex, "dimension to compare")
	cmd.Flags().IntVar(&from, "from", 0, "first year, inclusive")
	cmd.Flags().IntVar(&to, "to", 0, "last year, inclusive")
	return cmd
}

func writeComparison(w io.Writer, table domain.ComparisonTable) {
	labels := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		labels[i] = col.Label
	}
	fmt.Fprintf(w, "YEAR\t%s\n", strings.Join(labels, "\t"))

	for _, row := range table.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			if v == nil {
				cells[i] = "-"
				continue
			}
			cells[i] = num(*v)
		}
		fmt.Fprintf(w, "%s\t%s\n", strconv.Itoa(row.Year), strings.Join(cells, "\t"))
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		filter filterFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view to a CSV, XLSX or JSON file",
		Long: `Export writes the filtered records to --out. Without --out the file lands in
the exports directory, named after the selected company.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			spec, err := filter.spec()
			if err != nil {
				return err
			}

			view, err := c.service.Records(cmd.Context(), spec)
			if err != nil {
				return c.finish(err)
			}

			filename := exporter.ViewFilename(view, spec.EntityID, f)
			if out != "" {
				if filename, err = filepath.Abs(out); err != nil {
					return fmt.Errorf("--out: %w", err)
				}
			}

			path, err := exporter.NewWriter(c.paths, c.logger).WriteFile(view, f, filename)
			if err != nil {
				return err
			}

			summary := map[string]interface{}{"path": path, "format": f, "records": view.Len()}
			return c.emit(summary, func(w io.Writer) {
				fmt.Fprintf(w, "Wrote %d records to %s\n", view.Len(), path)
			})
		},
	}
	filter.register(cmd)
	names := make([]string, 0, len(exporter.Formats()))
	for _, f := range exporter.Formats() {
		names = append(names, string(f))
	}
	cmd.Flags().StringVar(&format, "format", string(exporter.FormatCSV), "file format: "+strings.Join(names, ", "))
	cmd.Flags().StringVar(&out, "out", "", "output file (default: exports directory)")
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of dtindex",
		Args:  cobra.NoArgs,
		// No dataset needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := contracts.GetVersionInfo()
			return c.emit(info, func(w io.Writer) {
				fmt.Fprintln(w, contracts.GetFullVersionString())
			})
		},
	}
}
