// Package report presents the results of a fleet run
package report

import (
	"macfinder/internal/domain"
	"macfinder/internal/service"
)

// Status is the overall outcome for one MAC across the fleet
type Status string

const (
	// StatusLocated: on an access port of at least one switch
	StatusLocated Status = "located"
	// StatusNonAccessOnly: seen only on trunk or other non-access ports
	StatusNonAccessOnly Status = "non_access_only"
	// StatusUnchecked: not seen, and at least one switch could not be checked
	StatusUnchecked Status = "unchecked"
	// StatusNotFound: every switch was checked and none had it
	StatusNotFound Status = "not_found"
)

// Description returns a human-readable status
func (s Status) Description() string {
	switch s {
	case StatusLocated:
		return "located"
	case StatusNonAccessOnly:
		return "found only on non-access ports"
	case StatusUnchecked:
		return "not found, some switches could not be checked"
	case StatusNotFound:
		return "not found anywhere"
	}
	return string(s)
}

// MACSummary folds every per-switch result for one MAC
type MACSummary struct {
	MAC    string `json:"mac" yaml:"mac"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Status Status `json:"status" yaml:"status"`
	// Locations are the access port matches
	Locations []domain.MatchResult `json:"locations,omitempty" yaml:"locations,omitempty"`
	// Sightings are matches on non-access ports
	Sightings []domain.MatchResult `json:"sightings,omitempty" yaml:"sightings,omitempty"`
	// Unchecked are the failed results: switches that could not be asked
	Unchecked []domain.MatchResult `json:"unchecked,omitempty" yaml:"unchecked,omitempty"`
}

// Summarize groups results by MAC in the order the MACs were queried
func Summarize(r service.Report) []MACSummary {
	index := make(map[string]int, len(r.MACs))
	summaries := make([]MACSummary, 0, len(r.MACs))
	for _, q := range r.MACs {
		if _, ok := index[q.MAC]; ok {
			continue
		}
		index[q.MAC] = len(summaries)
		summaries = append(summaries, MACSummary{MAC: q.MAC, Name: q.Name})
	}

	for _, res := range r.Results {
		i, ok := index[res.MAC]
		if !ok {
			index[res.MAC] = len(summaries)
			summaries = append(summaries, MACSummary{MAC: res.MAC, Name: res.Name})
			i = len(summaries) - 1
		}
		s := &summaries[i]
		switch {
		case res.Classification.Found():
			s.Locations = append(s.Locations, res)
		case res.Classification == domain.NonAccessPortIgnored:
			s.Sightings = append(s.Sightings, res)
		case res.Classification.Failed():
			s.Unchecked = append(s.Unchecked, res)
		}
	}

	for i := range summaries {
		summaries[i].Status = summaries[i].status()
	}
	return summaries
}

func (s MACSummary) status() Status {
	switch {
	case len(s.Locations) > 0:
		return StatusLocated
	case len(s.Sightings) > 0:
		return StatusNonAccessOnly
	case len(s.Unchecked) > 0:
		return StatusUnchecked
	}
	return StatusNotFound
}

// Incomplete reports whether any (switch, MAC) pair could not be checked
func Incomplete(r service.Report) bool {
	for _, res := range r.Results {
		if res.Classification.Failed() {
			return true
		}
	}
	return false
}
