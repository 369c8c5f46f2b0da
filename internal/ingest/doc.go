// Package ingest gathers raw footage from the input directory, normalizes
// every file to a common resolution and frame rate, and joins the results into
// the single source the rest of the pipeline analyses.
package ingest
