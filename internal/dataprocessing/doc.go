// Package dataprocessing cleans frames before they are displayed or exported.
//
// Cleaning is a short, ordered list of steps, each toggled independently:
//
//  1. drop_duplicates removes rows equal to an earlier row
//  2. impute_numeric fills numeric gaps with the column median
//  3. impute_categorical fills other gaps with the column mode
//
// The Cleaner always works on a copy, so the uploaded frame stays intact and
// every interaction can recompute from it:
//
//	cleaner := dataprocessing.NewCleaner(logger)
//	cleaned, report := cleaner.Clean(raw, domain.DefaultCleaningOptions())
package dataprocessing
