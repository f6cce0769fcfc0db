// Package configs provides the embedded configuration template for
// shortlistd.
//
// The template is embedded at build time with //go:embed so it ships
// inside the binary: `shortlistd config init` writes it next to the
// process as shortlist.yaml, and `shortlistd config show` documents
// the same keys with their effective values.
//
// Configuration precedence (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. shortlist.yaml or .shortlist.yaml in the working directory,
//     or the file named by --config
//  3. Environment variables (names noted in the template)
//
// The LLM API key is deliberately absent from the template: it is read
// from LLM_API_KEY only and never written to disk.
package configs

import _ "embed"

// ConfigTemplate is the annotated shortlist.yaml template written by
// `shortlistd config init`. Every value in it matches the built-in
// defaults.
//
//go:embed shortlist.example.yaml
var ConfigTemplate string
