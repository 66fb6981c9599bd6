// Package store persists measurements in SQLite and exposes the
// duplicate-safe insert paths the ingester builds on.
//
// Open applies pragmas and embedded migrations, then attempts to create the
// unique identity index over (timestamp, source, channel). When the index
// can be created, inserts use INSERT OR IGNORE; when legacy duplicate data
// prevents it, the store falls back to a conditional insert that checks
// existence in the same statement. Either way, re-inserting an existing
// measurement leaves exactly one persisted row.
//
// Treat this package as the single source of truth for the samples schema;
// changes go into a new migrations/*.sql file.
package store
