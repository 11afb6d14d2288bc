// Package election defines the JSON election definition format: the grid
// layouts that map (column, row) timing-mark grid positions to contest
// options, and the mark-threshold configuration used downstream by oval
// scoring.
package election

import (
	"encoding/json"
	"fmt"
	"os"
)

// Side identifies which physical page of a ballot card a grid position
// belongs to.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// MarkThresholds configures the fill-score cutoffs used to classify a
// scored oval as marked, marginal, or blank. Both fields are optional in
// the source JSON; a nil *MarkThresholds means the caller supplies its own.
type MarkThresholds struct {
	Definite float64 `json:"definite"`
	Marginal float64 `json:"marginal"`
}

// GridLocation identifies a single addressable cell in a ballot card's
// timing-mark grid.
type GridLocation struct {
	Side   Side `json:"side"`
	Column int  `json:"column"`
	Row    int  `json:"row"`
}

// GridPosition is a sum type: every grid position is either a contest
// option or a write-in slot. Use Type to discriminate, then read the
// matching concrete fields.
type GridPosition struct {
	Type         string `json:"type"` // "option" or "write-in"
	Side         Side   `json:"side"`
	Column       int    `json:"column"`
	Row          int    `json:"row"`
	ContestID    string `json:"contestId"`
	OptionID     string `json:"optionId,omitempty"`     // present when Type == "option"
	WriteInIndex int    `json:"writeInIndex,omitempty"` // present when Type == "write-in"
}

// IsWriteIn reports whether this position is a write-in slot rather than a
// printed contest option.
func (g GridPosition) IsWriteIn() bool {
	return g.Type == "write-in"
}

// ID returns the position's stable identifier: "<contest>-<option>" for
// printed options, or "<contest>-write-in-<index>" for write-ins.
func (g GridPosition) ID() string {
	if g.IsWriteIn() {
		return fmt.Sprintf("%s-write-in-%d", g.ContestID, g.WriteInIndex)
	}
	return fmt.Sprintf("%s-%s", g.ContestID, g.OptionID)
}

// String renders a human-readable label, matching the reference format:
// the option ID for printed options, or "Write-In N" for write-ins.
func (g GridPosition) String() string {
	if g.IsWriteIn() {
		return fmt.Sprintf("Write-In %d", g.WriteInIndex)
	}
	return g.OptionID
}

// Location returns the grid cell this position occupies.
func (g GridPosition) Location() GridLocation {
	return GridLocation{Side: g.Side, Column: g.Column, Row: g.Row}
}

// GridLayout describes one ballot style's timing-mark grid and the contest
// options addressable within it.
type GridLayout struct {
	PrecinctID    string         `json:"precinctId"`
	BallotStyleID string         `json:"ballotStyleId"`
	Columns       int            `json:"columns"`
	Rows          int            `json:"rows"`
	GridPositions []GridPosition `json:"gridPositions"`
}

// Election is the top-level election definition: a title plus one grid
// layout per ballot style, and optional mark-interpretation thresholds.
type Election struct {
	Title          string          `json:"title"`
	GridLayouts    []GridLayout    `json:"gridLayouts"`
	MarkThresholds *MarkThresholds `json:"markThresholds,omitempty"`
}

// Validate checks structural invariants that must hold before the election
// definition can be used to score a ballot card.
func (e *Election) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("election: title is required")
	}
	if len(e.GridLayouts) == 0 {
		return fmt.Errorf("election: at least one grid layout is required")
	}
	seen := make(map[string]bool, len(e.GridLayouts))
	for _, gl := range e.GridLayouts {
		if gl.BallotStyleID == "" {
			return fmt.Errorf("election: grid layout missing ballotStyleId")
		}
		if seen[gl.BallotStyleID] {
			return fmt.Errorf("election: duplicate ballot style id %q", gl.BallotStyleID)
		}
		seen[gl.BallotStyleID] = true
		if gl.Columns <= 0 || gl.Rows <= 0 {
			return fmt.Errorf("election: grid layout %q has non-positive dimensions", gl.BallotStyleID)
		}
		for _, gp := range gl.GridPositions {
			if gp.Type != "option" && gp.Type != "write-in" {
				return fmt.Errorf("election: grid layout %q has position with unknown type %q", gl.BallotStyleID, gp.Type)
			}
			if gp.Column < 0 || gp.Column >= gl.Columns || gp.Row < 0 || gp.Row >= gl.Rows {
				return fmt.Errorf("election: grid layout %q has position outside grid bounds", gl.BallotStyleID)
			}
		}
	}
	return nil
}

// GridLayoutByBallotStyle returns the grid layout for the given ballot
// style ID, or false if none is defined.
func (e *Election) GridLayoutByBallotStyle(id string) (GridLayout, bool) {
	for _, gl := range e.GridLayouts {
		if gl.BallotStyleID == id {
			return gl, true
		}
	}
	return GridLayout{}, false
}

// LoadFromFile reads and validates an election definition from a JSON file.
func LoadFromFile(path string) (*Election, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("election: read %s: %w", path, err)
	}

	var e Election
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("election: parse %s: %w", path, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("election: invalid definition in %s: %w", path, err)
	}
	return &e, nil
}

// SaveToFile writes the election definition to a JSON file.
func (e *Election) SaveToFile(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
