package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/replay"
	"github.com/danielpatrickdp/correction-synth/internal/synthesis"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region main

func main() {
	textPath := flag.String("text", "", "document text file")
	findingsPath := flag.String("findings", "", "findings JSON (array or module/gate set)")
	caseID := flag.String("id", "", "case id (defaults to the text file name)")
	docType := flag.String("document-type", "", "document type metadata")
	contextAware := flag.Bool("context-aware", false, "pin the context-aware mode")
	taxonomyPath := flag.String("taxonomy", "", "optional taxonomy overlay YAML")
	outPath := flag.String("out", "", "output fixture JSON path; an existing fixture is extended")
	flag.Parse()

	if *textPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --text doc.txt --findings findings.json --out fixture.json [--id name]")
		os.Exit(2)
	}
	if *caseID == "" {
		*caseID = *textPath
	}

	if err := run(*textPath, *findingsPath, *caseID, *docType, *contextAware, *taxonomyPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(textPath, findingsPath, caseID, docType string, contextAware bool, taxonomyPath, outPath string) error {
	text, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}
	var findings []finding.Finding
	if findingsPath != "" {
		data, err := os.ReadFile(findingsPath)
		if err != nil {
			return fmt.Errorf("read findings: %w", err)
		}
		if findings, err = finding.Decode(data); err != nil {
			return err
		}
	}

	reg := taxonomy.Default()
	if taxonomyPath != "" {
		if reg, err = taxonomy.Load(taxonomyPath); err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
	}

	opts := synthesis.DefaultOptions()
	opts.ContextAware = contextAware
	req := synthesis.Request{
		Text:     string(text),
		Findings: findings,
		Metadata: synthesis.Metadata{DocumentType: docType},
		Options:  opts,
	}
	thresholds := integrity.DefaultConfig()
	res := synthesis.NewEngine(reg, synthesis.WithIntegrityConfig(thresholds)).
		Synthesize(context.Background(), req)

	fmt.Printf("Synthesized %s: status=%s corrections=%d\n", caseID, res.Status, len(res.Corrections))

	fixture, err := loadOrNew(outPath, thresholds)
	if err != nil {
		return err
	}
	fixture.Cases = upsert(fixture.Cases, replay.Pin(caseID, req, res))
	if err := replay.WriteFixture(fixture, outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture to %s (%d case(s))\n", outPath, len(fixture.Cases))
	return nil
}

// #endregion extract

// #region output

func loadOrNew(path string, thresholds integrity.Config) (replay.Fixture, error) {
	f, err := replay.LoadFixture(path)
	if errors.Is(err, fs.ErrNotExist) {
		return replay.Fixture{
			Description: "Pinned synthesis cases",
			Config:      replay.FixtureConfigFrom(thresholds, 2),
		}, nil
	}
	if err != nil {
		return replay.Fixture{}, err
	}
	return *f, nil
}

// upsert replaces the case with the same id or appends it.
func upsert(cases []replay.FixtureCase, c replay.FixtureCase) []replay.FixtureCase {
	for i := range cases {
		if cases[i].CaseID == c.CaseID {
			cases[i] = c
			return cases
		}
	}
	return append(cases, c)
}

// #endregion output
