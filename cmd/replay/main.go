package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/correction-synth/internal/ledger"
	"github.com/danielpatrickdp/correction-synth/internal/replay"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to ledger db (divergence mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	taxonomyPath := flag.String("taxonomy", "", "optional taxonomy overlay YAML")
	repeat := flag.Int("repeat", 0, "runs per case; overrides the fixture's repeat")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/ledger.db")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json [--taxonomy overlay.yaml] [--repeat N]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *taxonomyPath, *repeat)
	} else {
		exitCode = runDBMode(*dbPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

// runDBMode lists every input hash the ledger has seen with more than one
// output hash.
func runDBMode(dbPath string) int {
	store, err := ledger.NewStore(dbPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	divs, err := store.Divergences()
	if err != nil {
		fmt.Fprintf(os.Stderr, "query divergences: %v\n", err)
		return 2
	}
	if len(divs) == 0 {
		fmt.Println("No divergent inputs: every recorded input hash has a single output hash.")
		return 0
	}

	fmt.Printf("%-62s| %-5s| %s\n", "Input hash", "Runs", "Output hashes")
	fmt.Printf("%-62s+%-6s+%s\n", "--------------------------------------------------------------", "------", "--------------")
	for _, d := range divs {
		for i, out := range d.OutputHashes {
			if i == 0 {
				fmt.Printf("%-62s| %-5d| %s\n", d.InputHash, d.Runs, out)
				continue
			}
			fmt.Printf("%-62s| %-5s| %s\n", "", "", out)
		}
	}
	fmt.Printf("\nSummary: %d divergent input(s)\n", len(divs))
	return 1
}

// #endregion db-mode

// #region fixture-mode

func runFixtureMode(path, taxonomyPath string, repeat int) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	reg := taxonomy.Default()
	if taxonomyPath != "" {
		if reg, err = taxonomy.Load(taxonomyPath); err != nil {
			fmt.Fprintf(os.Stderr, "load taxonomy: %v\n", err)
			return 2
		}
	}

	config := f.Config.ToReplayConfig()
	if repeat > 0 {
		config.Repeat = repeat
	}
	results := replay.Replay(context.Background(), reg, f.ToCases(), config)
	return printComparison(results)
}

// printComparison outputs one row per case and returns the exit code.
func printComparison(results []replay.ReplayResult) int {
	fmt.Printf("%-24s| %-18s| %-5s| %-9s| %s\n", "Case", "Status", "Recs", "Replayed", "Reason")
	fmt.Printf("%-24s+%-19s+%-6s+%-10s+%s\n",
		"------------------------", "-------------------", "------", "----------", "------")

	for _, r := range results {
		fmt.Printf("%-24s| %-18s| %-5d| %-9s| %s\n",
			r.CaseID, r.Result.Status, len(r.Result.Corrections), r.Action, r.Reason)
		rest := r.Mismatches
		if r.Action == replay.ActionDiverge {
			rest = rest[1:]
		}
		for _, m := range rest {
			fmt.Printf("%-24s| %-18s| %-5s| %-9s| %s\n", "", "", "", "", m)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d unstable, %d eval failed\n",
		s.TotalCases, s.Matches, s.Diverged, s.Unstable, s.EvalFailed)

	if s.Matches < s.TotalCases {
		return 1
	}
	return 0
}

// #endregion fixture-mode
