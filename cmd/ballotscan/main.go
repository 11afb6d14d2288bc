// Command ballotscan interprets a front/back pair of ballot page scans
// against an election definition and prints the scored oval positions.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ballotscan/internal/ballotcard"
	"ballotscan/internal/election"
	"ballotscan/internal/interpret"
	"ballotscan/internal/ovalscore"
	"ballotscan/internal/version"
)

func main() {
	front := flag.String("front", "", "Path to front page scan")
	back := flag.String("back", "", "Path to back page scan")
	electionPath := flag.String("election", "", "Path to election definition JSON")
	ovalTemplate := flag.String("oval-template", "", "Path to reference oval scan image")
	debug := flag.Bool("debug", false, "Print per-position scoring detail")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ballotscan %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *front == "" || *back == "" || *electionPath == "" || *ovalTemplate == "" {
		fmt.Println("Usage: ballotscan -front <image> -back <image> -election <election.json> -oval-template <oval.png>")
		os.Exit(1)
	}

	start := time.Now()

	e, err := election.LoadFromFile(*electionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load election definition: %v\n", err)
		os.Exit(1)
	}

	template, err := ballotcard.LoadOvalTemplate(*ovalTemplate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load oval template: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Interpreting %s / %s ===\n", *front, *back)

	card, err := interpret.InterpretBallotCard(*front, *back, interpret.Options{
		Election: e,
		Template: template,
		Debug:    *debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Interpretation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Result ===\n")
	fmt.Printf("Ballot style: %s\n", card.BallotStyleID)
	printScores("front", card.FrontScores, *debug)
	printScores("back", card.BackScores, *debug)

	fmt.Printf("\nDone in %s\n", time.Since(start))
}

func printScores(side string, scores []ovalscore.ScoredPosition, debug bool) {
	marked := 0
	for _, s := range scores {
		if s.Mark == nil {
			continue
		}
		if s.Mark.FillScore >= 0.5 {
			marked++
			if debug {
				fmt.Printf("  [%s] %s: match=%.1f%% fill=%.1f%%\n", side, s.Position.ID(), s.Mark.MatchScore*100, s.Mark.FillScore*100)
			}
		}
	}
	fmt.Printf("%s: %d/%d positions marked\n", side, marked, len(scores))
}
