// Package language provides language code normalization for WIT caption
// selection.
//
// It maps ISO 639-1/639-2 codes and English words onto one another, reduces
// BCP 47 tags to their base language, and finds the preferred caption
// language among the languages a record carries.
package language
