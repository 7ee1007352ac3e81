// Package visibility evaluates the condition rows attached to fields,
// sections and subsections. The same pure logic drives live show/hide while
// a form is filled in and, at submission time, decides which hidden fields'
// values are ignored and which fields are required.
package visibility
