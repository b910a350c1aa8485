package simjudge

import "time"

// Config holds configuration for the judgment simulation
type Config struct {
	BaseURL      string        // Base URL of the service
	NumItems     int           // Number of items to seed
	NumJudgments int           // Number of judgments to simulate
	TopN         int           // Number of top entries to fetch
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Output file for judgments
	LogFile      string        // Log file for simulation output
	Verbose      bool          // Enable verbose logging
}

// Item pairs a seeded pool item with the hidden skill the simulated
// judge uses to decide outcomes. The service never sees TrueSkill.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TrueSkill float64 `json:"true_skill"`
}

// Judgment mirrors the POST /judgments request schema.
type Judgment struct {
	JudgmentID string  `json:"judgment_id"`
	ItemA      string  `json:"item_a"`
	ItemB      string  `json:"item_b"`
	Score      float64 `json:"score"`
	TS         string  `json:"ts"`
}

// Match mirrors the GET /match response schema.
type Match struct {
	ItemA string `json:"item_a"`
	ItemB string `json:"item_b"`
}

// Entry represents a standings entry
type Entry struct {
	Rank       int     `json:"rank"`
	ItemID     string  `json:"item_id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	MatchCount int     `json:"match_count"`
}

// AckResponse represents the response from judgment submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds simulation statistics
type Stats struct {
	ItemsSeeded         int
	JudgmentsSubmitted  int
	JudgmentsSuccessful int
	JudgmentsDuplicate  int
	JudgmentsFailed     int
	RanksRetrieved      int
	StandingsEntries    int
	SkillCorrelation    float64
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
