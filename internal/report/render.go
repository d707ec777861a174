package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"macfinder/internal/domain"
	"macfinder/internal/service"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the machine-readable report
type Document struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Search   service.SearchMode   `json:"search" yaml:"search"`
	Started  time.Time            `json:"started" yaml:"started"`
	Finished time.Time            `json:"finished" yaml:"finished"`
	Switches int                  `json:"switches" yaml:"switches"`
	Summary  []MACSummary         `json:"summary" yaml:"summary"`
	Results  []domain.MatchResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// NewDocument builds the machine-readable report. Per-pair results are
// included only when verbose.
func NewDocument(r service.Report, verbose bool) Document {
	doc := Document{
		RunID:    r.RunID,
		Search:   r.Search,
		Started:  r.Started,
		Finished: r.Finished,
		Switches: len(r.Switches),
		Summary:  Summarize(r),
	}
	if verbose {
		doc.Results = r.Results
	}
	return doc
}

// Render writes r to w in the given format
func Render(w io.Writer, r service.Report, format string, verbose bool) error {
	switch format {
	case "", FormatText:
		return renderText(w, r, verbose)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(NewDocument(r, verbose)); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		if err := encoder.Encode(NewDocument(r, verbose)); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown report format %q", format)
}

func renderText(w io.Writer, r service.Report, verbose bool) error {
	fmt.Fprintf(w, "Searched %d switches for %d MACs (%s) in %s\n\n",
		len(r.Switches), len(r.MACs), r.Search, r.Finished.Sub(r.Started).Round(time.Millisecond))

	summaries := Summarize(r)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MAC\tNAME\tSTATUS\tSWITCH\tADDRESS\tPORT\tVLAN\tMODE")
	fmt.Fprintln(tw, "---\t----\t------\t------\t-------\t----\t----\t----")
	for _, s := range summaries {
		rows := s.Locations
		if s.Status == StatusNonAccessOnly {
			rows = s.Sightings
		}
		if len(rows) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\t-\n", domain.CiscoMAC(s.MAC), dash(s.Name), s.Status.Description())
			continue
		}
		for _, res := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				domain.CiscoMAC(s.MAC), dash(s.Name), s.Status.Description(),
				res.Switch, res.Address, dash(res.Port), vlan(res.VLAN), dash(res.Mode))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed := failedSwitches(r.Results); len(failed) > 0 {
		fmt.Fprintf(w, "\nFailures on %d switches:\n", len(failed))
		for _, res := range failed {
			fmt.Fprintf(w, "  %s (%s): %s: %s\n", res.Switch, res.Address, res.Classification.Description(), res.Error)
		}
	}

	if !verbose {
		return nil
	}

	fmt.Fprintln(w, "\nResults:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SWITCH\tADDRESS\tMAC\tPORT\tVLAN\tMODE\tRESULT\tERROR")
	fmt.Fprintln(tw, "------\t-------\t---\t----\t----\t----\t------\t-----")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Switch, res.Address, domain.CiscoMAC(res.MAC), dash(res.Port), vlan(res.VLAN),
			dash(res.Mode), res.Classification.Description(), dash(res.Error))
	}
	return tw.Flush()
}

// failedSwitches returns the first failed result of each switch that had one
func failedSwitches(results []domain.MatchResult) []domain.MatchResult {
	seen := make(map[string]bool)
	var failed []domain.MatchResult
	for _, res := range results {
		if !res.Classification.Failed() || seen[res.Address] {
			continue
		}
		seen[res.Address] = true
		failed = append(failed, res)
	}
	return failed
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func vlan(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}
