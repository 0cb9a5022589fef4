// Package storesync implements the store's product list endpoint.
//
// A single http.Handler reads and writes one JSON document kept in a private
// GitHub gist. The gist is found through a cached id, or on a cold cache by
// searching the caller's gists for the description
//
//	[YRGN STORE] Product Data
//
// GET returns the stored products.json verbatim, or [] when nothing can be
// read. POST replaces it with the request body re-indented by two spaces,
// creating the gist when no id is cached. OPTIONS answers the CORS preflight.
// Failures that are not degraded to [] become 500 {"error": "..."}.
package storesync
