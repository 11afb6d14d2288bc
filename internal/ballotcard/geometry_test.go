package ballotcard

import "testing"

func TestGeometryForDimensionsMatchesLetter(t *testing.T) {
	g, err := GeometryForDimensions(1696, 2200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.PaperSize != Letter {
		t.Errorf("PaperSize = %v, want Letter", g.PaperSize)
	}
	if g.GridSize.Width != 34 || g.GridSize.Height != 41 {
		t.Errorf("GridSize = %+v, want 34x41", g.GridSize)
	}
}

func TestGeometryForDimensionsMatchesLegal(t *testing.T) {
	g, err := GeometryForDimensions(1696, 2800)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.PaperSize != Legal {
		t.Errorf("PaperSize = %v, want Legal", g.PaperSize)
	}
	if g.GridSize.Height != 53 {
		t.Errorf("GridSize.Height = %d, want 53", g.GridSize.Height)
	}
}

func TestGeometryForDimensionsRejectsUnknownAspect(t *testing.T) {
	if _, err := GeometryForDimensions(500, 500); err == nil {
		t.Errorf("expected error for unrecognized aspect ratio")
	}
}
