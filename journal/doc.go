// Package journal persists the outcome of every vehicle command to a SQLite
// database for later inspection.
package journal
