// severity-check classifies a single metric value against the threshold
// table and prints the result. Useful for sanity-checking a thresholds
// file before deploying it.
//
//	severity-check -scale flood -value 0.72
//	severity-check -scale wind -value 28 -thresholds ./thresholds.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hazardwatch/go-hazard-alerts/internal/severity"
)

func main() {
	scale := flag.String("scale", "", "scale to classify against (flood, earthquake, precipitation, wind, temperature, seismic_magnitude)")
	value := flag.Float64("value", 0, "metric value to classify")
	thresholdsPath := flag.String("thresholds", "", "optional thresholds YAML file")
	flag.Parse()

	if *scale == "" {
		flag.Usage()
		os.Exit(2)
	}

	table := severity.Default()
	if *thresholdsPath != "" {
		var err error
		table, err = severity.LoadFile(*thresholdsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	tiers := table.Tiers(severity.Scale(*scale))
	if len(tiers) == 0 {
		fmt.Fprintf(os.Stderr, "error: unknown scale %q\n", *scale)
		os.Exit(2)
	}

	sev, ok := table.Classify(severity.Scale(*scale), *value)
	if !ok {
		fmt.Printf("%s %v: below all thresholds, no alert\n", *scale, *value)
		return
	}
	fmt.Printf("%s %v: %s\n", *scale, *value, sev)
}
