// Package router maps tool names to upstream servers.
//
// The routing table is seeded from configuration (static tool lists) and
// filled in by discovery, which asks each upstream for its tools over the
// wire. A specific tool entry always beats a wildcard entry no matter the
// order they were registered in. Discovery failures degrade one server
// without blocking the rest.
package router
