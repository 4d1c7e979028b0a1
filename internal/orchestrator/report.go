package orchestrator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/invalid"
	"github.com/socialmapper/socialmapper/internal/types"
)

// writeReport implements step 7: emit the enriched dataset as CSV under
// OutputDir/csv when ExportCSV is set, and the C13 invalid-data report (CSV and JSON) when
// anything was dropped along the way. Returns a map of kind -> path for
// every file actually written.
func (o *Orchestrator) writeReport(bundle ResultBundle, opts types.AnalysisOptions) (map[string]string, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = o.cfg.OutputDir
	}

	basename := reportBasename(bundle.Metadata)
	files := map[string]string{}

	if opts.ExportCSV {
		csvDir := filepath.Join(outputDir, "csv")
		if err := os.MkdirAll(csvDir, 0o755); err != nil {
			return nil, errs.Wrap(errs.KindDataProcessing, "report", err, "failed to create csv output directory")
		}
		path := filepath.Join(csvDir, basename+".csv")
		if err := writeRowsCSV(path, bundle.Rows); err != nil {
			return nil, err
		}
		o.logger.Info("wrote dataset csv", "path", path, "rows", len(bundle.Rows))
		files["dataset_csv"] = path
	}

	if bundle.InvalidSummary.Total() > 0 {
		reportDir := filepath.Join(outputDir, "reports")
		if err := os.MkdirAll(reportDir, 0o755); err != nil {
			return nil, errs.Wrap(errs.KindDataProcessing, "report", err, "failed to create report output directory")
		}
		csvPath := filepath.Join(reportDir, basename+"_invalid.csv")
		if err := writeInvalidCSV(csvPath, bundle.InvalidSummary); err != nil {
			return nil, err
		}
		jsonPath := filepath.Join(reportDir, basename+"_invalid.json")
		if err := writeInvalidJSON(jsonPath, bundle.InvalidSummary); err != nil {
			return nil, err
		}
		o.logger.Info("wrote invalid-data report", "csv", csvPath, "json", jsonPath, "total", bundle.InvalidSummary.Total())
		files["invalid_csv"] = csvPath
		files["invalid_json"] = jsonPath
	}

	return files, nil
}

// reportBasename names output files after the POI source's center and
// requested travel time, matching spec.md §6's "basename + travel-time"
// naming convention for the invalid-data report.
func reportBasename(m ResultMetadata) string {
	return fmt.Sprintf("socialmapper_%dmin_%s_%s",
		m.TravelTime,
		strconv.FormatFloat(m.CenterLat, 'f', 4, 64),
		strconv.FormatFloat(m.CenterLon, 'f', 4, 64),
	)
}

var csvColumns = []string{
	"GEOID", "poi_id", "poi_name",
	"travel_time_minutes", "avg_travel_speed_kmh", "avg_travel_speed_mph",
	"travel_distance_km", "travel_distance_miles",
}

func writeRowsCSV(path string, rows []types.EnrichedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, fmt.Sprintf("failed to create %q", path))
	}
	defer f.Close()

	censusCols := censusColumns(rows)
	w := csv.NewWriter(f)
	header := append(append([]string{}, csvColumns...), censusCols...)
	if err := w.Write(header); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to write csv header")
	}

	for _, r := range rows {
		record := []string{
			r.GEOID, r.POIID, r.POIName,
			strconv.Itoa(r.TravelTimeMinutes),
			formatFloat(r.AvgTravelSpeedKMH),
			formatFloat(r.AvgTravelSpeedMPH),
			formatFloat(r.TravelDistanceKM),
			formatFloat(r.TravelDistanceMiles),
		}
		for _, col := range censusCols {
			record = append(record, formatCensusValue(r.CensusValues[col]))
		}
		if err := w.Write(record); err != nil {
			return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to flush csv writer")
	}
	return nil
}

// censusColumns collects the distinct census human-name columns present
// across rows, sorted for a stable column order.
func censusColumns(rows []types.EnrichedRow) []string {
	set := map[string]bool{}
	for _, r := range rows {
		for name := range r.CensusValues {
			set[name] = true
		}
	}
	cols := make([]string, 0, len(set))
	for name := range set {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatCensusValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// writeInvalidCSV writes one row per dropped record across all three
// invalid categories, flagged by a "category" column.
func writeInvalidCSV(path string, summary invalid.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, fmt.Sprintf("failed to create %q", path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"category", "stage", "reason", "data"}); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to write invalid-report header")
	}

	categories := []struct {
		name    string
		records []types.InvalidRecord
	}{
		{"point", summary.InvalidPoints},
		{"cluster", summary.InvalidClusters},
		{"processing_error", summary.ProcessingErrors},
	}
	for _, cat := range categories {
		for _, rec := range cat.records {
			data, _ := json.Marshal(rec.Data)
			if err := w.Write([]string{cat.name, string(rec.Stage), rec.Reason, string(data)}); err != nil {
				return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to write invalid-report row")
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to flush invalid-report csv writer")
	}
	return nil
}

func writeInvalidJSON(path string, summary invalid.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, "failed to marshal invalid-data report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "report", err, fmt.Sprintf("failed to write %q", path))
	}
	return nil
}
