package validator

import (
	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// #region wire
// CheckRequest is the JSON body of a Check call.
type CheckRequest struct {
	Text    string   `json:"text"`
	Modules []string `json:"modules"`
}

// CheckResponse is the JSON body of a Check reply.
type CheckResponse struct {
	Findings []finding.Finding `json:"findings"`
}

// #endregion wire
