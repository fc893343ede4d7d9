// Package normalisers provides implementations of the Normaliser interface.
// A normaliser turns raw transcript text into the clean form that is chunked
// and embedded.
package normalisers
