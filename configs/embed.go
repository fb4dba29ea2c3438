// Package configs embeds the annotated configuration template printed by
// `patclust mkconf --example`.
//
// The template lists every setting with its default value. Settings that
// depend on the machine, such as the data directory or the number of
// workers, are commented out. A copy of the template is a valid
// configuration file for `patclust cluster --config`.
package configs

import _ "embed"

// ExampleConfig is the annotated configuration template.
//
//go:embed patclust.example.yaml
var ExampleConfig string
