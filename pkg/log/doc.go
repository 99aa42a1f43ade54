// Package log wraps zerolog with a global logger, leveled JSON or console
// output, and child-logger helpers scoped to a component, client, task or
// model id.
package log
