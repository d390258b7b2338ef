package models

import "time"

// Column names of the primary scored table.
const (
	ColDistrict            = "district"
	ColState               = "state"
	ColAFI                 = "AFI"
	ColBioScore            = "Bio_Score"
	ColChildExclusionScore = "Child_Exclusion_Score"
	ColOverloadScore       = "Overload_Score"
	ColAvgDailyVol         = "avg_daily_vol"
	ColTotalEnrol          = "total_enrol"
)

// District is the typed view of one scored record. Optional metrics are nil
// when the column is absent or the cell is blank.
type District struct {
	Position            int      `json:"position"`
	Name                string   `json:"district"`
	State               string   `json:"state"`
	AFI                 float64  `json:"afi"`
	BioScore            *float64 `json:"bio_score,omitempty"`
	ChildExclusionScore *float64 `json:"child_exclusion_score,omitempty"`
	OverloadScore       *float64 `json:"overload_score,omitempty"`
	AvgDailyVol         *float64 `json:"avg_daily_vol,omitempty"`
	TotalEnrol          *float64 `json:"total_enrol,omitempty"`
}

// ReconciliationOutcome names how the state attribute was produced.
type ReconciliationOutcome string

const (
	OutcomePresent       ReconciliationOutcome = "present"
	OutcomeJoined        ReconciliationOutcome = "joined"
	OutcomeNoCandidates  ReconciliationOutcome = "no_candidates"
	OutcomeFallbackError ReconciliationOutcome = "fallback_error"
)

type ReconciliationReport struct {
	Outcome     ReconciliationOutcome `json:"outcome"`
	PrimaryPath string                `json:"primary_path"`
	Pattern     string                `json:"pattern,omitempty"`
	Files       []string              `json:"files,omitempty"`
	Discovered  int                   `json:"discovered"`
	MappingSize int                   `json:"mapping_size"`
	Rows        int                   `json:"rows"`
	MatchedRows int                   `json:"matched_rows"`
	UnknownRows int                   `json:"unknown_rows"`
	CacheHit    bool                  `json:"cache_hit"`
	Error       string                `json:"error,omitempty"`
	LoadedAt    time.Time             `json:"loaded_at"`
	DurationMS  int64                 `json:"duration_ms"`
}

// StateSummary aggregates the districts reconciled to one state.
type StateSummary struct {
	State     string  `json:"state"`
	Districts int     `json:"districts"`
	AvgAFI    float64 `json:"avg_afi"`
	MaxAFI    float64 `json:"max_afi"`
}
