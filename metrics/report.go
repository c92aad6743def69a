package metrics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// StrategyReport is one strategy's contribution to a Report's summary.
type StrategyReport struct {
	Name             string             `json:"name" yaml:"name"`
	Confusion        Confusion          `json:"confusion" yaml:"confusion"`
	Precision        float64            `json:"precision" yaml:"precision"`
	Recall           float64            `json:"recall" yaml:"recall"`
	F1               float64            `json:"f1" yaml:"f1"`
	Accuracy         float64            `json:"accuracy" yaml:"accuracy"`
	SpamReduction    SpamReduction      `json:"spam_reduction" yaml:"spam_reduction"`
	SpamReductionPct float64            `json:"spam_reduction_pct" yaml:"spam_reduction_pct"`
	LegitPassRate    float64            `json:"legit_pass_rate" yaml:"legit_pass_rate"`
	Latency          LatencyPercentiles `json:"latency" yaml:"latency"`
	Errors           int                `json:"errors" yaml:"errors"`
}

// Summary is the "summary" top-level document section.
type Summary struct {
	Overall    StrategyReport            `json:"overall" yaml:"overall"`
	ByStrategy map[string]StrategyReport `json:"by_strategy" yaml:"by_strategy"`
	RelayLoad  RelayLoadSnapshot         `json:"relay_load" yaml:"relay_load"`
	Resilience ResilienceSnapshot        `json:"resilience" yaml:"resilience"`
}

// TimeSeriesPoint is one {time, value} sample.
type TimeSeriesPoint struct {
	Time  float64 `json:"time" yaml:"time"`
	Value float64 `json:"value" yaml:"value"`
}

// ThroughputPoint is one {time, events_per_second, simulation_speed_factor}
// sample.
type ThroughputPoint struct {
	Time                  float64 `json:"time" yaml:"time"`
	EventsPerSecond       float64 `json:"events_per_second" yaml:"events_per_second"`
	SimulationSpeedFactor float64 `json:"simulation_speed_factor" yaml:"simulation_speed_factor"`
}

// TimeSeries is the "time_series" top-level document section.
type TimeSeries struct {
	QueueSize       []TimeSeriesPoint `json:"queue_size" yaml:"queue_size"`
	EventsProcessed []TimeSeriesPoint `json:"events_processed" yaml:"events_processed"`
	Throughput      []ThroughputPoint `json:"throughput" yaml:"throughput"`
}

// CollectionInfo is the "collection_info" top-level document section.
type CollectionInfo struct {
	SnapshotCount      int     `json:"snapshot_count" yaml:"snapshot_count"`
	CollectionInterval float64 `json:"collection_interval" yaml:"collection_interval"`
}

// Report is the full, value-copied comprehensive report a Pipeline can
// produce on demand.
type Report struct {
	Summary        Summary        `json:"summary" yaml:"summary"`
	TimeSeries     TimeSeries     `json:"time_series" yaml:"time_series"`
	CollectionInfo CollectionInfo `json:"collection_info" yaml:"collection_info"`
}

func buildStrategyReport(name string, c Confusion, s SpamReduction, latencySecs []float64, errs int) StrategyReport {
	return StrategyReport{
		Name:             name,
		Confusion:        c,
		Precision:        c.Precision(),
		Recall:           c.Recall(),
		F1:               c.F1(),
		Accuracy:         c.Accuracy(),
		SpamReduction:    s,
		SpamReductionPct: s.SpamReductionPct(),
		LegitPassRate:    s.LegitPassRate(),
		Latency:          computeLatencyPercentiles(latencySecs),
		Errors:           errs,
	}
}

// Report produces a value-copy snapshot of the pipeline's entire state.
// Two snapshots taken with no intervening Process/RecordAttack/etc calls
// compare equal, except for the relay-load rates, which count samples
// within one second of the pipeline clock's reading at snapshot time.
func (p *Pipeline) Report(series TimeSeries, info CollectionInfo) Report {
	var overallLatency []float64
	byStrategy := make(map[string]StrategyReport, len(p.strategies))
	var overallErrors int

	for _, rs := range p.strategies {
		byStrategy[rs.strategy.Name()] = buildStrategyReport(
			rs.strategy.Name(), rs.confusion, rs.spamReduction, rs.latencySecs, rs.errorCount,
		)
		overallLatency = append(overallLatency, rs.latencySecs...)
		overallErrors += rs.errorCount
	}

	overall := buildStrategyReport("overall", p.overallConfusion, p.overallSpamReduction, overallLatency, overallErrors)
	overall.Name = "overall"

	return Report{
		Summary: Summary{
			Overall:    overall,
			ByStrategy: byStrategy,
			RelayLoad:  p.relayLoad.snapshot(p.now()),
			Resilience: p.resil.snapshot(),
		},
		TimeSeries:     series,
		CollectionInfo: info,
	}
}

// MarshalArtifact renders the report in the requested format: "json",
// "yaml", or "csv". CSV flattens the summary's overall and per-strategy
// rows; time series and collection info are not representable in CSV and
// are omitted, matching a tabular export's natural shape.
func (r Report) MarshalArtifact(format string) ([]byte, error) {
	switch format {
	case "json", "":
		return json.MarshalIndent(r, "", "  ")
	case "yaml":
		return yaml.Marshal(r)
	case "csv":
		return r.marshalCSV()
	default:
		return nil, fmt.Errorf("metrics: unsupported output format %q", format)
	}
}

func (r Report) marshalCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"strategy", "tp", "tn", "fp", "fn", "precision", "recall", "f1", "accuracy",
		"spam_reduction_pct", "legit_pass_rate", "p50", "p90", "p95", "p99", "errors",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.Summary.ByStrategy))
	for name := range r.Summary.ByStrategy {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]StrategyReport, 0, len(names)+1)
	rows = append(rows, r.Summary.Overall)
	for _, name := range names {
		rows = append(rows, r.Summary.ByStrategy[name])
	}

	for _, sr := range rows {
		row := []string{
			sr.Name,
			strconv.Itoa(sr.Confusion.TP),
			strconv.Itoa(sr.Confusion.TN),
			strconv.Itoa(sr.Confusion.FP),
			strconv.Itoa(sr.Confusion.FN),
			strconv.FormatFloat(sr.Precision, 'f', -1, 64),
			strconv.FormatFloat(sr.Recall, 'f', -1, 64),
			strconv.FormatFloat(sr.F1, 'f', -1, 64),
			strconv.FormatFloat(sr.Accuracy, 'f', -1, 64),
			strconv.FormatFloat(sr.SpamReductionPct, 'f', -1, 64),
			strconv.FormatFloat(sr.LegitPassRate, 'f', -1, 64),
			strconv.FormatFloat(sr.Latency.P50, 'f', -1, 64),
			strconv.FormatFloat(sr.Latency.P90, 'f', -1, 64),
			strconv.FormatFloat(sr.Latency.P95, 'f', -1, 64),
			strconv.FormatFloat(sr.Latency.P99, 'f', -1, 64),
			strconv.Itoa(sr.Errors),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
