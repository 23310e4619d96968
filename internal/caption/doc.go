// Package caption chooses the caption language for a WIT record and composes
// tagged caption strings from its text fields.
package caption
