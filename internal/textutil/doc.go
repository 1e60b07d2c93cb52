// Package textutil provides the digit and word scanning shared by the corpus
// importer and the carrier strategies.
//
// A digit is any Unicode decimal digit (category Nd), so cover texts that use
// non-ASCII numerals are counted and substituted like ASCII ones. Lengths are
// measured in code points.
package textutil
