// Package history persists the recently used (definition, firmware) pairs and
// the default folder offered when picking files.
//
// The state is a small JSON file, by default under the user config directory.
// At most MaxRecent pairs are kept, most recent first, one per definition.
package history
