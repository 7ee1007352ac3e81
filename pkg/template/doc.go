// Package template defines the canonical in-memory tree for user-authored
// form templates: a Template owns ordered Sections, each Section owns ordered
// Fields and an optional keyed set of Subsections, and Fields, Sections and
// Subsections carry Conditions that drive visibility and requiredness.
//
// The tree is a plain value graph. Templates own their sections and fields by
// value; callers that need an independent copy (baselines, restores, undo
// buffers) use Clone. Field ids are unique across the entire template because
// conditions and rule expressions resolve references by id alone.
//
// Subsections are kept as an ordered map whose presence is tri-state: a nil
// *Subsections means the section has no subsections attribute at all, a
// non-nil empty value means the attribute exists but holds nothing, and a
// populated value carries keyed children in insertion order.
package template
