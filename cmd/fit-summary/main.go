package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/okian/marathon/internal/adapters/fitfile"
)

type report struct {
	fitfile.Summary
	FormKmPerWeek    int      `json:"form_km4week"`
	FormSpeedPerWeek float64  `json:"form_sp4week"`
	Files            int      `json:"files"`
	Failed           []string `json:"failed,omitempty"`
}

func main() {
	window := flag.Int("window", fitfile.DefaultWindowDays, "Trailing window in days")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: fit-summary [-window days] activity.fit [more.fit ...]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Prints km4week and sp4week derived from FIT activity files.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var activities []fitfile.Activity
	rep := report{}
	for _, path := range flag.Args() {
		acts, err := decodeFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			rep.Failed = append(rep.Failed, path)
			continue
		}
		rep.Files++
		activities = append(activities, acts...)
	}

	activities, dropped := fitfile.Unique(context.Background(), activities)
	sum, err := fitfile.Summarize(activities, *window)
	sum.Duplicates = dropped
	if err != nil {
		fmt.Fprintf(os.Stderr, "summary failed: %v\n", err)
		os.Exit(1)
	}
	rep.Summary = sum
	rep.FormKmPerWeek, rep.FormSpeedPerWeek = sum.FormValues()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

func decodeFile(path string) ([]fitfile.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return fitfile.Decode(f)
}
