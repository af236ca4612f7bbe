// Package render executes page templates and writes the results to the output tree.
//
// An Environment is bound to one template directory and one language pass. Templates
// are Go text/template files looked up by flat name inside that directory. Every page
// gets its own url_for, url_for_rooted and url_for_language functions bound to the
// page's resolve.PageContext, plus the Sprig function map and a markdown filter.
package render
