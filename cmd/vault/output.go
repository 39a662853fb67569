package main

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// formatFloat renders archive values without trailing float noise.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func emit(asCSV bool, header []string, rows [][]string) {
	if asCSV {
		writeCSV(header, rows)
		return
	}
	writeTable(header, rows)
}

func writeTable(header []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	w.Write([]byte(strings.Join(header, "\t") + "\n"))
	for _, row := range rows {
		w.Write([]byte(strings.Join(row, "\t") + "\n"))
	}
	w.Flush()
}

func writeCSV(header []string, rows [][]string) {
	w := csv.NewWriter(os.Stdout)
	w.Write(header)
	w.WriteAll(rows)
	w.Flush()
}
