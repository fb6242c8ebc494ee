// Package assets bundles the static files served by the upload UI.
// index.html is generated from the .tpl/.css/.js sources by cmd/minify.
package assets

import _ "embed"

//go:embed index.html
var Index []byte

//go:embed favicon.svg
var Favicon []byte
