// Package site holds the item registry: the mapping from item id to item descriptor
// that every other stage of a generation run reads.
//
// An item is one of three kinds:
//   - TemplatePage: rendered from a named template once per configured language
//   - StaticResource: a file copied verbatim, shared by all languages
//   - ReferenceOnly: a placeholder that can be linked to but produces no output
//
// The registry is built before a run (from configuration, template headers and the
// resource directory) and is read-only while the run executes.
package site
