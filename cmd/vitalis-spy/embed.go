package main

import _ "embed"

// embeddedConfig holds the YAML configuration embedded at build time.
// Packaging scripts may overwrite embed_config.yaml with device defaults
// before compiling; the checked-in copy changes nothing.
//
//go:embed embed_config.yaml
var embeddedConfig []byte
