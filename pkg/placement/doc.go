// Package placement implements the structural edits a template builder
// performs: reordering fields inside a container, moving them across
// containers, inserting and deleting fields, and creating, deleting and
// restoring sections.
//
// All edits go through a Session, which owns the working template for one
// editing session together with its counters ("New Section N" never reuses
// N), the list of sections and fields removed during the session, and the
// cached data-field ordering of the paired section.
//
// The paired section renders two independent orderings, action buttons and
// everything else, yet persists a single fields array. After every edit the
// Session rewrites that array as buttons followed by data fields and re-tags
// owning paths.
//
// Every edit leaves field order dense and zero-based.
package placement
