package election

import "testing"

func validElection() Election {
	return Election{
		Title: "Test Election",
		GridLayouts: []GridLayout{
			{
				BallotStyleID: "card-number-1",
				Columns:       10,
				Rows:          10,
				GridPositions: []GridPosition{
					{Type: "option", Side: Front, Column: 1, Row: 1, ContestID: "mayor", OptionID: "smith"},
					{Type: "write-in", Side: Front, Column: 2, Row: 1, ContestID: "mayor", WriteInIndex: 0},
				},
			},
		},
	}
}

func TestElectionValidateAccepts(t *testing.T) {
	e := validElection()
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestElectionValidateRejectsMissingTitle(t *testing.T) {
	e := validElection()
	e.Title = ""
	if err := e.Validate(); err == nil {
		t.Errorf("expected error for missing title")
	}
}

func TestElectionValidateRejectsOutOfBoundsPosition(t *testing.T) {
	e := validElection()
	e.GridLayouts[0].GridPositions[0].Column = 999
	if err := e.Validate(); err == nil {
		t.Errorf("expected error for out-of-bounds grid position")
	}
}

func TestElectionValidateRejectsDuplicateBallotStyle(t *testing.T) {
	e := validElection()
	e.GridLayouts = append(e.GridLayouts, e.GridLayouts[0])
	if err := e.Validate(); err == nil {
		t.Errorf("expected error for duplicate ballot style id")
	}
}

func TestGridPositionIDAndString(t *testing.T) {
	option := GridPosition{Type: "option", ContestID: "mayor", OptionID: "smith"}
	if option.ID() != "mayor-smith" {
		t.Errorf("ID() = %q, want mayor-smith", option.ID())
	}
	if option.String() != "smith" {
		t.Errorf("String() = %q, want smith", option.String())
	}

	writeIn := GridPosition{Type: "write-in", ContestID: "mayor", WriteInIndex: 2}
	if writeIn.ID() != "mayor-write-in-2" {
		t.Errorf("ID() = %q, want mayor-write-in-2", writeIn.ID())
	}
	if writeIn.String() != "Write-In 2" {
		t.Errorf("String() = %q, want 'Write-In 2'", writeIn.String())
	}
}

func TestGridLayoutByBallotStyle(t *testing.T) {
	e := validElection()
	gl, ok := e.GridLayoutByBallotStyle("card-number-1")
	if !ok {
		t.Fatalf("expected to find grid layout")
	}
	if gl.Columns != 10 {
		t.Errorf("Columns = %d, want 10", gl.Columns)
	}

	if _, ok := e.GridLayoutByBallotStyle("nonexistent"); ok {
		t.Errorf("expected not to find nonexistent ballot style")
	}
}
