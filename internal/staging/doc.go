// Package staging manages the per-run scratch directories under
// <work_dir>/runs. Each run writes clips, manifests and merged files into its
// own directory, removed when the run ends; directories left behind by
// crashed runs are swept by CleanStale at the next start.
package staging
