// Package translate produces translated copies of a template directory from a PO
// catalog, and extracts the translatable text of templates into a POT file.
//
// Only HTML templates are merged. The template is tokenized and every token is copied
// byte for byte, except for text nodes and the alt, title, placeholder and meta
// description attributes that have a translation in the catalog. Template actions are
// never part of a translatable unit, so {{ url_for "ID" }} and the page-config header
// survive translation unchanged.
package translate
