package inference

import (
	"context"
)

// DefaultModelID names the checkpoint the service is built around.
// The runner reports the exact version it loaded; this constant is the
// fallback when that report has not arrived yet.
const DefaultModelID = "facebook/mbart-large-50-many-to-many-mmt"

// Capabilities describes what the model runner currently serves.
type Capabilities struct {
	// ModelVersion identifies the loaded checkpoint.
	ModelVersion string `json:"model_version"`
	// AdaptersLoaded is true when domain adapters are fused into the model.
	AdaptersLoaded bool `json:"adapters_loaded"`
	// Device is the compute device the model runs on, e.g. "cuda" or "cpu".
	Device string `json:"device"`
}

// Backend defines the interface to a machine translation model runner.
// This abstraction keeps the orchestration pipeline independent of how
// the model is hosted, and lets tests substitute a scripted backend.
type Backend interface {
	// Generate translates text between two model locale identifiers
	// (e.g. "en_XX" to "de_DE"). beamWidth controls how many candidate
	// sequences the decoder explores.
	Generate(ctx context.Context, text, sourceID, targetID string, beamWidth int) (string, error)

	// Capabilities reports the runner's loaded model and adapter state.
	Capabilities(ctx context.Context) (Capabilities, error)

	// CheckHealth verifies that the runner is ready to serve requests.
	CheckHealth(ctx context.Context) error
}
