// Package conceptmap computes deterministic layered layouts for glossary
// concept maps.
//
// # Overview
//
// A concept map shows glossary terms as boxes and the relations between them
// (prerequisite, variant, component, applies) as curved arrows. This package
// turns a set of term identifiers and a list of directed relations into
// coordinates a renderer can draw directly. It does not render, fetch or
// persist anything.
//
// The layout is a simplified Sugiyama-style layered layout in three stages:
//
//  1. [AssignLevels] ranks every node by longest-path leveling
//  2. [AssignCoordinates] lays out each level as a centered horizontal row
//  3. [RouteEdges] computes a four-point cubic Bézier route per relation
//
// [ComputeLayout] runs all three stages and adds a tight bounding box.
//
// # Degenerate Input
//
// Every function in this package is total. Relations that reference unknown
// identifiers are dropped silently, nodes caught in cycles fall back to
// level 0, and an empty node list yields an empty [Layout]. The data may
// legitimately reference terms outside the current view, so none of these
// cases are errors.
//
// Non-unique identifiers are a caller contract violation. [ValidateNodeIDs]
// reports them; the engine keeps the first occurrence so the output stays
// well-defined.
//
// # Determinism
//
// Output depends only on the input order and content. Calling [ComputeLayout]
// twice with identical input yields identical results, so layouts can be
// memoized by (node set, relation set, config).
//
// # Usage
//
//	l := conceptmap.ComputeLayout(
//	    []string{"a", "b", "c", "d"},
//	    []conceptmap.Relation{
//	        {From: "a", To: "b", Kind: conceptmap.Prerequisite},
//	        {From: "a", To: "c", Kind: conceptmap.Prerequisite},
//	        {From: "b", To: "d", Kind: conceptmap.Prerequisite},
//	        {From: "c", To: "d", Kind: conceptmap.Prerequisite},
//	    },
//	)
//	// l.Nodes: a@0, b@1, c@1, d@2
package conceptmap
