// Package arrow provides a thin, reusable Arrow IPC serialize/deserialize
// helper. resultio builds its own Records against its own schema; this
// package only owns turning a Record into IPC bytes and back, independent
// of what those bytes represent.
package arrow
