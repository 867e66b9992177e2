// Package pagination walks the sections of one episode, following a single
// "next section" relation per page and accumulating an ordered, deduplicated
// list of image URLs. A walk never explores other outbound links.
package pagination
