// Package oracle computes the determinism hashes of a synthesis run.
//
// Both hashes are CIDv1 strings (raw codec, sha2-256 multihash) over a
// canonical JSON payload: struct fields in fixed order, slices pre-sorted.
// Two runs over identical inputs must produce identical hashes; they are
// never used to drive control flow.
package oracle

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// #region types

// Hashes pairs the input and output digests of one run.
type Hashes struct {
	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`
}

type inputPayload struct {
	TextDigest string            `json:"text_digest"`
	Findings   []finding.Finding `json:"findings"`
}

type outputPayload struct {
	TextDigest      string   `json:"text_digest"`
	CorrectionCount int      `json:"correction_count"`
	StrategyTypes   []string `json:"strategy_types"`
}

// #endregion types

// #region hashes

// TextDigest returns the hex-encoded sha2-256 multihash of text.
func TextDigest(text string) (string, error) {
	sum, err := multihash.Sum([]byte(text), multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("text digest: %w", err)
	}
	return sum.HexString(), nil
}

// InputHash digests the original text and every supplied finding, including
// non-actionable ones, in canonical order.
func InputHash(text string, findings []finding.Finding) (string, error) {
	digest, err := TextDigest(text)
	if err != nil {
		return "", err
	}
	sorted := finding.SortAll(findings)
	if sorted == nil {
		sorted = []finding.Finding{}
	}
	return hashJSON(inputPayload{TextDigest: digest, Findings: sorted})
}

// OutputHash digests the corrected text, the number of corrections and the
// sorted distinct strategy types used.
func OutputHash(text string, correctionCount int, strategyTypes []string) (string, error) {
	digest, err := TextDigest(text)
	if err != nil {
		return "", err
	}
	return hashJSON(outputPayload{
		TextDigest:      digest,
		CorrectionCount: correctionCount,
		StrategyTypes:   distinctSorted(strategyTypes),
	})
}

// Valid reports whether s parses as a CID.
func Valid(s string) bool {
	_, err := cid.Decode(s)
	return err == nil
}

// #endregion hashes

// #region helpers

func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("payload digest: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

func distinctSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// #endregion helpers
