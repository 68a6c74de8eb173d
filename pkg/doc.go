// Package pkg provides the core libraries for Causalite causal discovery.
//
// # Overview
//
// Causalite searches for the causal structure behind tabular data by walking
// the space of variable orderings. The pkg directory is organized into four
// main areas:
//
//  1. [graph], [knowledge], [data], [score] - Domain model (graphs with
//     endpoint-typed edges, background constraints, datasets, scoring oracles)
//  2. [search] - The permutation search itself (order scorer, BOSS/GRaSP
//     moves, backward equivalence search, orientation rules)
//  3. [graphio], [sim] - Serialization and synthetic benchmarks
//  4. [cache], [store], [observability], [errors] - Infrastructure
//
// # Architecture
//
// The typical data flow through Causalite:
//
//	CSV dataset
//	     ↓
//	data.Dataset ── covariance ──→ score.SemBIC
//	     ↓                              ↓
//	search.Run ──→ boss.Search (relocate/tuck sweeps × restarts)
//	     ↓              ↕ scorer.Scorer (bookmarks, incremental MoveTo)
//	     ↓              ↕ bes.Run (backward equivalence search)
//	     ↓
//	orient (knowledge + Meek rules, or FCI finalization with --latent)
//	     ↓
//	graph.Graph ──→ graphio (JSON / text / DOT / SVG / PNG)
//	     ↓
//	store.Record (file / memory / redis / mongo)
//
// Library packages never log; they report progress through the hook
// registry in [observability] and return structured errors from [errors].
package pkg
