// Package preflight provides readiness checks for the binaries and
// filesystem paths highlighter depends on.
//
// These checks run in two contexts:
//   - The workflow calls RunAll before a run starts. If a required check
//     fails, the run stops before any media is touched.
//   - The CLI "highlighter doctor" command displays every result, including
//     advisory ones such as LUT validity and hardware encoder support.
package preflight
