// Package output renders relog-cli results as a table, JSON or YAML.
//
// Tables are built by reflection: a struct becomes a FIELD/VALUE listing and
// a slice of structs becomes one row per element, with column names taken
// from the json tags.
package output
