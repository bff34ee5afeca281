// Package loaders converts heterogeneous file formats into normalised
// RawDocuments. Two variants implement the same Loader port: Baseline
// extracts plain text per format; Rich produces richer markdown-flavoured
// text and handles additional formats. When a rich conversion fails, the
// loader routes the file to the format-specific baseline fallback before
// giving up.
package loaders
