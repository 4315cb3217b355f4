package eval

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/acompa/chaincrf/alg/featurevector"
	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// MaxReportedErrors caps the error classes listed by Report.
var MaxReportedErrors = 10

// Report writes a human readable summary of total to w. Per-sample
// statistics need total to have kept its Results.
func Report(w io.Writer, total *Total, desc *featurevector.Descriptor) error {
	rate, err := total.ErrorRate()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Samples:     %s\n", humanize.Comma(int64(total.Population)))
	fmt.Fprintf(w, "Tokens:      %s (%s mistagged)\n", humanize.Comma(int64(total.All())), humanize.Comma(int64(total.Incorrect)))
	fmt.Fprintf(w, "Error rate:  %.4f\n", rate)
	fmt.Fprintf(w, "Accuracy:    %.4f\n", total.Accuracy())
	fmt.Fprintf(w, "Exact match: %.4f (%d of %d)\n", total.ExactMatch(), total.Exact, total.Population)

	if len(total.Results) > 0 {
		rates := make(stats.Float64Data, 0, len(total.Results))
		for _, r := range total.Results {
			if r.All() > 0 {
				rates = append(rates, r.ErrorRate())
			}
		}
		mean, err := rates.Mean()
		if err != nil {
			return errors.Wrap(err, "mean sample error rate")
		}
		median, err := rates.Median()
		if err != nil {
			return errors.Wrap(err, "median sample error rate")
		}
		stddev, err := rates.StandardDeviation()
		if err != nil {
			return errors.Wrap(err, "stddev of sample error rate")
		}
		fmt.Fprintf(w, "Per sample:  mean %.4f, median %.4f, stddev %.4f\n", mean, median, stddev)
	}

	if len(total.Tags) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "tag\tgold\tprecision\trecall\tf1")
		for tag, c := range total.Tags {
			name := fmt.Sprintf("%d", tag)
			if desc != nil {
				name = desc.TagName(tag)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, humanize.Comma(int64(c.TP+c.FN)),
				ratio(c.Precision()), ratio(c.Recall()), ratio(c.F1()))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	byType := total.Errors().ByType()
	if len(byType) == 0 {
		return nil
	}
	classes := make([]string, 0, len(byType))
	for class := range byType {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		if byType[classes[i]] != byType[classes[j]] {
			return byType[classes[i]] > byType[classes[j]]
		}
		return classes[i] < classes[j]
	})
	if len(classes) > MaxReportedErrors {
		classes = classes[:MaxReportedErrors]
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Most frequent errors (gold -> predicted):")
	for _, class := range classes {
		fmt.Fprintf(w, "  %-20s %s\n", class, humanize.Comma(int64(byType[class])))
	}
	return nil
}

func ratio(val float64) string {
	if math.IsNaN(val) {
		return "-"
	}
	return fmt.Sprintf("%.4f", val)
}
