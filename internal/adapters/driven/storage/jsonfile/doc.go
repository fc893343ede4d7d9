// Package jsonfile keeps the dedup ledger and per-source chunk documents as
// plain JSON files under the data directory.
//
// The ledger is loaded fully when opened and rewritten in full on every
// mutation through a temporary file and rename, so a crash never leaves a
// half-written ledger behind. It assumes a single writer process.
package jsonfile
