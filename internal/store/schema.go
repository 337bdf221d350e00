package store

import _ "embed"

// Schema holds the postgres DDL for every table the stores touch. Integration
// tests apply it to a fresh container; deployments run it as a migration.
//
//go:embed schema.sql
var Schema string
