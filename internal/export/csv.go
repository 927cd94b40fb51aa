package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/echopress-data/echopress/internal/align"
)

// resultHeader is the column layout of the per-midpoint report.
var resultHeader = []string{
	"seq", "midpoint", "state", "index", "e_align",
	"pressure", "dpdt", "delta_p", "bound_lo", "bound_hi",
	"method", "w_eff",
}

// WriteResults writes the per-midpoint alignment report as CSV. Rejected
// rows keep their sequence, midpoint, state and alignment error but leave
// the pressure, derivative and bound columns empty since none were
// computed.
func WriteResults(w io.Writer, midpoints, pressures []float64, batch align.BatchResult) error {
	if len(midpoints) != len(batch.Results) {
		return fmt.Errorf("midpoints length %d does not match results length %d",
			len(midpoints), len(batch.Results))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range batch.Results {
		row := []string{
			strconv.Itoa(i),
			formatFloat(midpoints[i]),
			string(r.State),
			strconv.Itoa(r.Index),
			formatFloat(r.EAlign),
			"", "", "", "", "",
			r.Diagnostics.Method,
			"",
		}
		if !r.Rejected() {
			row[5] = formatFloat(pressures[r.Index])
			row[6] = formatFloat(r.DpDt)
			row[7] = formatFloat(r.DeltaP)
			row[8] = formatFloat(r.BoundLo)
			row[9] = formatFloat(r.BoundHi)
			row[11] = strconv.Itoa(r.Diagnostics.WEff)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the per-midpoint report to path.
func WriteResultsFile(path string, midpoints, pressures []float64, batch align.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResults(f, midpoints, pressures, batch); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// tallHeader is the column layout of the consolidated table export.
var tallHeader = []string{
	"sid", "file_stamp", "idx", "path", "value",
	"alignment_error", "deriv_lo", "deriv_hi", "pressure_label",
}

// WriteTall writes the consolidated three-table merge as CSV. Absent
// columns are left empty.
func WriteTall(w io.Writer, rows []TallRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tallHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		record := []string{
			r.SID,
			r.FileStamp,
			strconv.Itoa(r.Idx),
			stringOrEmpty(r.Path),
			floatOrEmpty(r.Value),
			floatOrEmpty(r.AlignmentError),
			floatOrEmpty(r.DerivLo),
			floatOrEmpty(r.DerivHi),
			stringOrEmpty(r.PressureLabel),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTallFile writes the consolidated export to path.
func WriteTallFile(path string, rows []TallRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTall(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
