// Package blend implements the blend document model and its Markdown format.
//
// A blend is a named list of game resources grouped by type. It is stored as a
// restricted Markdown dialect:
//
//	# My Blend
//
//	## Overview
//	### Description
//	Free text.
//
//	## Board
//	- Main Board: imperium
//	- Additional Boards: shaddam, choam
//
//	**Total Items:** 3
//
//	## Imperium
//	- 2× Sword (Base Game)
//	- Leader #7 (Promo)
//
//	---
//	*Generated by Dune Imperium Blend Builder*
//
// Parse is lenient and never fails: lines it does not understand are skipped.
// Serialize is deterministic and collapses repeated items into counted lines.
//
// Known gap: Serialize counts entries, not the Count already carried by an item.
// A parsed "3× Sword" therefore serializes back as a single "Sword" line unless
// the caller expands it into three entries first (see catalog.Enrich).
package blend
