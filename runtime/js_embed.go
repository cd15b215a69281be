// Package runtimeembed provides the embedded JS support library that
// generated JS output loads with require("veld_runtime").
package runtimeembed

import (
	_ "embed"
)

//go:embed veld_runtime.js
var jsRuntime []byte

// JSRuntime returns the support library source. The build command
// writes it next to the generated .js file.
func JSRuntime() []byte {
	return jsRuntime
}
