// Package csvio reads booster input files and writes the booster's result files.
package csvio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/unclebandit/cpas-demos/internal/model"
)

const utf8BOM = "\xEF\xBB\xBF"

// MediaColumns is the header of the fetch mode output
var MediaColumns = []string{"media_id", "permalink", "owner_id", "has_permission_for_partnership_ad", "eligibility_errors"}

// MetricColumns follow MediaColumns when metrics were requested
var MetricColumns = []string{"likes", "comments", "reach", "impressions", "saves"}

// ReadInputFile reads every record of a create mode input file
func ReadInputFile(path string) ([]model.InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("The file %s was not found.", path)
		}
		return nil, err
	}
	defer f.Close()

	return ReadInput(f)
}

// ReadInput keeps header order and every value as text. Short records are
// padded with empty values; extra fields are dropped.
func ReadInput(r io.Reader) ([]model.InputRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []model.InputRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows := []model.InputRow{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				values[col] = record[i]
			} else {
				values[col] = ""
			}
		}
		rows = append(rows, model.NewInputRow(header, values))
	}
	return rows, nil
}

// WriteResultsFile writes the create mode output to path
func WriteResultsFile(path string, results []model.RowResult) error {
	return writeFile(path, func(w io.Writer) error { return WriteResults(w, results) })
}

// WriteResults writes the input columns of the first row in their order,
// followed by ResultColumns. A result column already present in the input is
// overwritten in place.
func WriteResults(w io.Writer, results []model.RowResult) error {
	var header []string
	if len(results) > 0 {
		header = append(header, results[0].Input.Columns...)
	}
	for _, col := range model.ResultColumns {
		if !contains(header, col) {
			header = append(header, col)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, res := range results {
		out := map[string]string{
			"status":          res.Status,
			"error":           res.Error,
			"video_id":        res.VideoID,
			"creative_id":     res.CreativeID,
			"published_ad_id": res.PublishedAdID,
		}
		record := make([]string, len(header))
		for i, col := range header {
			if v, ok := out[col]; ok {
				record[i] = v
			} else {
				record[i] = res.Input.Get(col)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMediasFile writes the fetch mode output to path
func WriteMediasFile(path string, records []model.MediaRecord, withMetrics bool) error {
	return writeFile(path, func(w io.Writer) error { return WriteMedias(w, records, withMetrics) })
}

// WriteMedias writes one line per media. Missing metrics are left empty.
func WriteMedias(w io.Writer, records []model.MediaRecord, withMetrics bool) error {
	header := append([]string(nil), MediaColumns...)
	if withMetrics {
		header = append(header, MetricColumns...)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		eligibility := rec.EligibilityErrors
		if eligibility == nil {
			eligibility = []string{}
		}
		errs, err := json.Marshal(eligibility)
		if err != nil {
			return err
		}

		record := []string{rec.ID, rec.Permalink, rec.OwnerID, strconv.FormatBool(rec.HasPermission), string(errs)}
		if withMetrics {
			m := rec.Metrics
			if m == nil {
				m = &model.MediaMetrics{}
			}
			record = append(record, formatMetric(m.Likes), formatMetric(m.Comments),
				formatMetric(m.Reach), formatMetric(m.Impressions), formatMetric(m.Saves))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatMetric(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
