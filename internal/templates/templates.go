// Package templates holds the starter files written out by 'pokybox init'.
package templates

import _ "embed"

// ConfigYAML is the annotated pokybox.yaml sample.
//
//go:embed config.template
var ConfigYAML []byte

// EnvFile is the .env sample listing the POKYBOX_* overrides.
//
//go:embed env.template
var EnvFile []byte
