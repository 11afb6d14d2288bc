// Package interpret orchestrates the full ballot-page interpretation
// pipeline: loading a front/back image pair, locating each page's
// timing-mark grid, decoding each page's bottom-row metadata, matching the
// pair to an election's grid layout, and scoring every oval position.
package interpret

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"ballotscan/internal/ballotcard"
	"ballotscan/internal/debugimg"
	"ballotscan/internal/election"
	"ballotscan/internal/imaging"
	"ballotscan/internal/metadata"
	"ballotscan/internal/ovalscore"
	"ballotscan/internal/timingmarks"
)

// Options configures a single interpretation run.
type Options struct {
	Election *election.Election
	Template *image.Gray
	Debug    bool
}

// Card is the fully interpreted result of one ballot card: each side's
// timing-mark grid and the scored oval positions found on it.
type Card struct {
	BallotStyleID string

	FrontGrid   *timingmarks.Grid
	FrontScores []ovalscore.ScoredPosition

	BackGrid   *timingmarks.Grid
	BackScores []ovalscore.ScoredPosition
}

// ErrorKind enumerates the ways interpretation can fail, matching the
// taxonomy external callers need to distinguish recoverable conditions
// (e.g. a badly-scanned page) from configuration errors (e.g. no matching
// grid layout).
type ErrorKind int

const (
	ErrImageOpenFailure ErrorKind = iota
	ErrUnexpectedDimensions
	ErrMismatchedBallotCardGeometries
	ErrMissingTimingMarks
	ErrInvalidCardMetadata
	ErrInvalidMetadata
	ErrMissingGridLayout
)

// Error is the structured error type returned by this package's
// operations. Exactly the fields relevant to Kind are populated.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error

	FrontGeometry, BackGeometry ballotcard.PaperSize
	BallotStyleID               string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrImageOpenFailure:
		return fmt.Sprintf("interpret: failed to open image %s: %v", e.Path, e.Err)
	case ErrUnexpectedDimensions:
		return fmt.Sprintf("interpret: %s has dimensions that match no known ballot card geometry", e.Path)
	case ErrMismatchedBallotCardGeometries:
		return fmt.Sprintf("interpret: front page geometry (%s) does not match back page geometry (%s)", e.FrontGeometry, e.BackGeometry)
	case ErrMissingTimingMarks:
		return fmt.Sprintf("interpret: could not locate a complete timing mark frame in %s", e.Path)
	case ErrInvalidCardMetadata:
		return fmt.Sprintf("interpret: front/back metadata does not form a valid front+back pair: %v", e.Err)
	case ErrInvalidMetadata:
		return fmt.Sprintf("interpret: could not decode page metadata for %s: %v", e.Path, e.Err)
	case ErrMissingGridLayout:
		return fmt.Sprintf("interpret: no grid layout found for ballot style %q", e.BallotStyleID)
	default:
		return fmt.Sprintf("interpret: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// loadedPage is one side of a ballot card after loading and fitting to its
// detected canvas geometry.
type loadedPage struct {
	path  string
	gray  *image.Gray
	geom  ballotcard.Geometry
}

// loadPage opens path, converts to grayscale, determines its ballot card
// geometry from its dimensions, and resizes it to fit within that
// geometry's canvas, preserving its aspect ratio.
func loadPage(path string) (*loadedPage, error) {
	gray, err := imaging.LoadGray(path)
	if err != nil {
		return nil, &Error{Kind: ErrImageOpenFailure, Path: path, Err: err}
	}

	b := gray.Bounds()
	geom, err := ballotcard.GeometryForDimensions(b.Dx(), b.Dy())
	if err != nil {
		return nil, &Error{Kind: ErrUnexpectedDimensions, Path: path, Err: err}
	}

	fitted := imaging.FitToCanvas(gray, geom.CanvasSize.Width, geom.CanvasSize.Height)
	return &loadedPage{path: path, gray: fitted, geom: geom}, nil
}

// loadPagesInParallel loads the front and back images concurrently,
// matching the reference pipeline's side-by-side load step.
func loadPagesInParallel(frontPath, backPath string) (*loadedPage, *loadedPage, error) {
	var front, back *loadedPage
	var frontErr, backErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		front, frontErr = loadPage(frontPath)
	}()
	go func() {
		defer wg.Done()
		back, backErr = loadPage(backPath)
	}()
	wg.Wait()

	if frontErr != nil {
		return nil, nil, frontErr
	}
	if backErr != nil {
		return nil, nil, backErr
	}
	if front.geom.PaperSize != back.geom.PaperSize {
		return nil, nil, &Error{
			Kind:          ErrMismatchedBallotCardGeometries,
			FrontGeometry: front.geom.PaperSize,
			BackGeometry:  back.geom.PaperSize,
		}
	}
	return front, back, nil
}

// pageResult is what findGridAndMetadata produces for one side.
type pageResult struct {
	grid          *timingmarks.Grid
	page          metadata.Page
	ovalThreshold uint8
}

// findGridAndMetadata runs contour detection, best-fit line assembly,
// frame completion, and bottom-row metadata decoding for a single page. The
// Otsu level computed here is also the threshold later used to binarize
// this page's oval crops during scoring, so every downstream binarization
// of this page agrees with the one that found its timing marks.
func findGridAndMetadata(p *loadedPage, debug bool) (*pageResult, error) {
	mat := imaging.GrayToMat(p.gray)
	defer mat.Close()
	thresholded, level := imaging.OtsuThreshold(mat)
	defer thresholded.Close()

	var debugBase gocv.Mat
	if debug {
		debugBase = gocv.NewMat()
		gocv.CvtColor(mat, &debugBase, gocv.ColorGrayToBGR)
		defer debugBase.Close()
	}

	candidates := timingmarks.FindCandidateRects(thresholded, p.geom)
	if debug {
		fmt.Printf("%s: %d timing mark candidates found\n", p.path, len(candidates))
		writeDebugOverlay(p.path, "candidates", debugimg.DrawCandidateRects(debugBase, candidates))
	}

	partial := timingmarks.FindPartialFrame(p.geom, candidates)
	if partial == nil {
		return nil, &Error{Kind: ErrMissingTimingMarks, Path: p.path}
	}

	complete := timingmarks.CompleteFromPartial(partial)
	if complete == nil {
		return nil, &Error{Kind: ErrMissingTimingMarks, Path: p.path}
	}
	if debug {
		fmt.Printf("%s: frame complete, top=%d bottom=%d left=%d right=%d\n",
			p.path, len(complete.TopRects), len(complete.BottomRects), len(complete.LeftRects), len(complete.RightRects))
		writeDebugOverlay(p.path, "frame", debugimg.DrawFrame(debugBase, complete))
	}

	bits, err := metadata.ComputeBitsFromBottomTimingMarks(partial.BottomRects, complete.BottomRects)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidMetadata, Path: p.path, Err: err}
	}

	page, err := metadata.Decode(bits)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidMetadata, Path: p.path, Err: err}
	}

	grid := timingmarks.NewGrid(complete)
	if debug {
		writeDebugOverlay(p.path, "grid", debugimg.DrawGrid(debugBase, grid))
	}

	return &pageResult{grid: grid, page: page, ovalThreshold: uint8(level)}, nil
}

// writeDebugOverlay writes overlay to its derived debug path and closes it.
// Write failures are reported but never fail interpretation: debug images
// are diagnostic, not part of the scored result.
func writeDebugOverlay(srcPath, kind string, overlay gocv.Mat) {
	defer overlay.Close()
	path := debugimg.Path(srcPath, kind)
	if err := debugimg.Write(path, overlay); err != nil {
		fmt.Printf("%s: %v\n", srcPath, err)
		return
	}
	fmt.Printf("%s: wrote %s\n", srcPath, path)
}

// InterpretBallotCard runs the full pipeline against a front/back image
// pair: it loads both pages, locates each side's timing-mark grid,
// decodes metadata to disambiguate which file is the front and which is
// the back, resolves the matching election grid layout, and scores every
// oval position on both sides.
func InterpretBallotCard(pathA, pathB string, opts Options) (*Card, error) {
	a, b, err := loadPagesInParallel(pathA, pathB)
	if err != nil {
		return nil, err
	}

	var (
		resultA, resultB *pageResult
		errA, errB       error
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		resultA, errA = findGridAndMetadata(a, opts.Debug)
	}()
	go func() {
		defer wg.Done()
		resultB, errB = findGridAndMetadata(b, opts.Debug)
	}()
	wg.Wait()

	if errA != nil {
		return nil, errA
	}
	if errB != nil {
		return nil, errB
	}

	front, back, frontPage, backPage, err := disambiguate(a, resultA, b, resultB)
	if err != nil {
		return nil, err
	}

	ballotStyleID := fmt.Sprintf("card-number-%d", frontPage.page.Front.CardNumber)
	layout, ok := opts.Election.GridLayoutByBallotStyle(ballotStyleID)
	if !ok {
		return nil, &Error{Kind: ErrMissingGridLayout, BallotStyleID: ballotStyleID}
	}

	var frontScores, backScores []ovalscore.ScoredPosition
	wg.Add(2)
	go func() {
		defer wg.Done()
		frontScores = ovalscore.ScoreGridLayout(front.gray, opts.Template, frontPage.grid, layout, election.Front, frontPage.ovalThreshold)
	}()
	go func() {
		defer wg.Done()
		backScores = ovalscore.ScoreGridLayout(back.gray, opts.Template, backPage.grid, layout, election.Back, backPage.ovalThreshold)
	}()
	wg.Wait()

	if opts.Debug {
		fillThreshold := 0.5
		if opts.Election.MarkThresholds != nil {
			fillThreshold = opts.Election.MarkThresholds.Definite
		}
		writeScoreOverlay(front.path, front.gray, frontScores, fillThreshold)
		writeScoreOverlay(back.path, back.gray, backScores, fillThreshold)
	}

	return &Card{
		BallotStyleID: ballotStyleID,
		FrontGrid:     frontPage.grid,
		FrontScores:   frontScores,
		BackGrid:      backPage.grid,
		BackScores:    backScores,
	}, nil
}

// writeScoreOverlay renders and writes the per-oval scoring debug image for
// one page, matching the same silently-best-effort policy as
// writeDebugOverlay: a write failure is logged, not fatal.
func writeScoreOverlay(path string, gray *image.Gray, scores []ovalscore.ScoredPosition, fillThreshold float64) {
	mat := imaging.GrayToMat(gray)
	defer mat.Close()
	colorMat := gocv.NewMat()
	defer colorMat.Close()
	gocv.CvtColor(mat, &colorMat, gocv.ColorGrayToBGR)

	writeDebugOverlay(path, "scores", debugimg.DrawScores(colorMat, scores, fillThreshold))
}

// disambiguate figures out which of the two loaded pages is the front and
// which is the back, based on which of the two possible (front, back)
// metadata pairings is internally consistent.
func disambiguate(a *loadedPage, ra *pageResult, b *loadedPage, rb *pageResult) (front, back *loadedPage, frontResult, backResult *pageResult, err error) {
	aIsFront := ra.page.Side == metadata.SideFront
	bIsFront := rb.page.Side == metadata.SideFront

	switch {
	case aIsFront && !bIsFront:
		return a, b, ra, rb, nil
	case bIsFront && !aIsFront:
		return b, a, rb, ra, nil
	default:
		return nil, nil, nil, nil, &Error{
			Kind: ErrInvalidCardMetadata,
			Err:  fmt.Errorf("expected one front page and one back page, got sides %v and %v", ra.page.Side, rb.page.Side),
		}
	}
}
