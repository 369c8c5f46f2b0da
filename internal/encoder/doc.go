// Package encoder negotiates which of the two codec profiles a run uses.
//
// A Negotiator runs one bounded test encode against the hardware codec. Exit
// zero selects the hardware profile; any failure, timeout, or runner error
// selects the software profile. The result is a Profile value that the
// pipeline passes explicitly to every stage, plus the transcode.RetryPolicy
// that lets a stage fall back to the software profile at runtime.
package encoder
