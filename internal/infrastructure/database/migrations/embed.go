// Package migrations holds the database schema of the adaptor.
package migrations

import _ "embed"

//go:embed schema.sql
var Schema string
