package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// maxListedFailures caps the failure lines in the run summary.
const maxListedFailures = 10

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Run Summary
// =============================================================================

// printSummary prints the outcome of a generate run.
func printSummary(r *pipeline.Result, cc *cacheCounter, written bool) {
	s := r.Stats

	switch {
	case r.OK():
		printSuccess("Generated %s variants for %s images",
			StyleNumber.Render(fmt.Sprint(s.VariantsWritten)), StyleNumber.Render(fmt.Sprint(s.Processed)))
	case s.VariantsWritten > 0:
		printWarning("Generated %d variants for %d images with %d failures", s.VariantsWritten, s.Processed, len(r.Failures))
	default:
		printError("No variants generated (%d failures)", len(r.Failures))
	}
	fmt.Println(statsLine(s, cc))

	if written {
		printFile(r.ManifestPath)
	}

	if r.OK() {
		return
	}
	byCode := r.FailuresByCode()
	for _, code := range slices.Sorted(maps.Keys(byCode)) {
		printDetail("%s × %d", codeLabel(code), byCode[code])
	}
	for i, f := range r.Failures {
		if i == maxListedFailures {
			printInfo("%d more, run with --verbose for all", len(r.Failures)-i)
			break
		}
		printDetail("%s", f.Error())
	}
}

// statsLine renders the dim one-line stats under the headline.
func statsLine(s pipeline.Stats, cc *cacheCounter) string {
	parts := []string{
		fmt.Sprintf("%d placeholders", s.Placeholders),
		formatBytes(s.BytesWritten),
		(s.DiscoverTime + s.ProcessTime + s.PersistTime).Round(time.Millisecond).String(),
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}

	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	if s.VariantsCached > 0 {
		cached := fmt.Sprintf("%d cached", s.VariantsCached)
		if cc != nil {
			cached = fmt.Sprintf("%d cached (%d hits, %d misses)", s.VariantsCached, cc.hits.Load(), cc.misses.Load())
		}
		line += StyleDim.Render(" · ") + styleCached.Render(cached)
	}
	return line
}

// formatBytes renders n in binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// codeLabel is the short label for an error code in listings.
func codeLabel(c errors.Code) string {
	return strings.ToLower(strings.TrimSuffix(string(c), "_ERROR"))
}
