// Package notifications pushes run outcomes to ntfy.
//
// The topic comes from the [notifications] section of config.toml. When no
// topic is configured NewService returns a no-op, so the workflow can notify
// unconditionally.
package notifications
