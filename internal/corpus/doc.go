// Package corpus stores the news articles that serve as cover texts.
//
// Articles are imported from a CSV export with at least the columns
// category, title, content and datetime into a SQLite database. Each row
// keeps its precomputed digit count so the corpus strategy never rescans the
// whole corpus. Imports are serialized with a lock file next to the database
// and run in a single transaction; importing the same article twice is a
// no-op.
//
// CoverTexts returns the articles of one category ordered by publication
// time, which is the order the corpus strategy uses to break length ties.
package corpus
