// Package textutil provides filename sanitization for values that flow from
// external sources into filesystem paths.
package textutil
