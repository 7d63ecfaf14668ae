// Package username validates Instagram username candidates and reads them from
// newline-delimited lists.
package username
