// Package ui prints coloured per-username verdicts and run summaries.
//
// Colours come from github.com/fatih/color and honour NO_COLOR and non-TTY
// output; SetNoColor forces them off. Quiet mode keeps only available names,
// errors and the final summary.
package ui
