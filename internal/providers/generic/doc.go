// Package generic implements the fallback providers.Adapter for catalog
// style novel sites: a single index page listing chapter links, usually
// inside ul.mulu_list, with chapter pages under /book/.
package generic
