// Package types defines the Store interface, the task entities it manages,
// their creation and patch inputs, and the standard errors shared by every
// store backend and by the HTTP layer.
package types
