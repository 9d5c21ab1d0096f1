// Package migrations embeds the contact-service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
