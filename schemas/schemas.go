// Package schemas embeds the JSON Schemas that describe jobscout's input files
// and request bodies.
package schemas

import _ "embed" // schema files are embedded below

// BoardProfiles validates a board profiles file.
//
//go:embed board_profiles.schema.json
var BoardProfiles string

// SearchParams validates a JSON search request body.
//
//go:embed search_params.schema.json
var SearchParams string
