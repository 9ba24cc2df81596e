// Package duneblend is the composition root of DuneBlend, a builder and store
// for Dune: Imperium blends.
//
// A blend is a Markdown document: a title, optional Overview and Board
// sections, then one section per resource type listing items as
// "- 2× Name (Source)" lines. Package blend parses and serializes that
// format; package core holds the storage ports and the Service that applies
// the business rules (protected blends, read-only mode, download fallback).
//
// Stores:
//
//   - fs: a directory of .md files with an index.json listing, optionally
//     versioned with git and watchable for live updates.
//   - sqlite: a single database file.
//   - remote: a running DuneBlend server, degrading to static hosting.
//
// Usage:
//
//	svc, err := duneblend.New("./blends",
//		duneblend.WithVersioning(true),
//		duneblend.WithLogger(logger),
//	)
//
//	doc := duneblend.Parse(text)
//	res, err := svc.SaveBlend(ctx, "Spice Wars", doc)
package duneblend
