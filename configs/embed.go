// Package configs provides the embedded configuration template for elemdex.
//
// The template is embedded at build time with //go:embed so it ships in every
// distribution, source builds included. `elemdex config init` writes it to
// ~/.elemdex/config.yaml as a starting point; all keys are optional and fall
// back to the built-in defaults (internal/config.DefaultConfig).
package configs

import _ "embed"

// ConfigTemplate is the annotated starting-point configuration written by
// `elemdex config init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
