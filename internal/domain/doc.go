// Package domain models the artifacts produced by the climate data management
// (CDMS) summary products and the rules for checking them against committed
// golden files.
//
// # Artifacts
//
// The products under test emit two kinds of artifact:
//
//	Tables: climatic_summary and inventory_table return ordered, named
//	columns of numbers, strings, dates and missing values.
//	Images: inventory_plot and timeseries_plot write rendered JPEG files.
//
// Tables are compared cell by cell after both sides have passed through the
// same CSV round-trip, so any precision the text format drops is dropped on
// both sides. Images are compared byte for byte.
//
// # Naming Convention
//
// Every artifact written by a test run is named with the token "actual":
//
//	climatic_summary_actual010.csv
//	inventory_plot_actual020.jpg
//
// Its golden counterpart replaces the first occurrence of "actual" with
// "expected" (climatic_summary_expected010.csv). Names without the token are
// rejected with [ErrNamingConvention]; see [DeriveExpectedName].
//
// # Results Layout
//
// A results directory holds two subtrees. The actual subtree is regenerated on
// every run and safe to delete. The expected subtree holds version-controlled
// fixtures and is read-only to the verifier. See [Layout].
//
// # Missing Values
//
// The source datasets use the literal "NA" for unreported observations. Empty
// fields are treated the same way. Two missing cells compare equal.
package domain
