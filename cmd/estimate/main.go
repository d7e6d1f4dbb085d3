package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Dan9191/outbreak-estimator/internal/handler"
	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/Dan9191/outbreak-estimator/internal/report"
	"github.com/Dan9191/outbreak-estimator/internal/service"
)

const (
	chartWidth  = 60
	chartHeight = 12
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run reads one estimation input from the named file or stdin and prints the result
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "table", "output format: json|xml|table")
	chart := fs.Bool("chart", false, "plot infection growth (table format only)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: estimate [-format json|xml|table] [-chart] [file]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	if err := estimate(in, stdout, *format, *chart); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func estimate(in io.Reader, out io.Writer, format string, chart bool) error {
	var input models.EstimationInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	result, err := service.Estimate(&input)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)

	case "xml":
		body, err := handler.EncodeXML(result)
		if err != nil {
			return err
		}
		_, err = out.Write(body)
		return err

	case "table":
		days := service.DaysElapsed(input.PeriodType, *input.TimeToElapse)
		if _, err := io.WriteString(out, report.Table(result, days)); err != nil {
			return err
		}
		if !chart {
			return nil
		}
		return writeChart(out, &input)

	default:
		return errors.New("unknown format " + format + ": want json|xml|table")
	}
}

func writeChart(out io.Writer, input *models.EstimationInput) error {
	impact, err := service.Timeline(input, service.ImpactMultiplier)
	if err != nil {
		return err
	}
	severe, err := service.Timeline(input, service.SevereImpactMultiplier)
	if err != nil {
		return err
	}

	plot := report.Chart(impact, severe, chartWidth, chartHeight)
	if plot == "" {
		return nil
	}
	_, err = fmt.Fprintf(out, "\n%s\n", plot)
	return err
}
