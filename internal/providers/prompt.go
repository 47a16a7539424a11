package providers

import (
	"fmt"
	"strings"
)

// EnrichImagePrompt deterministically appends the commercial format context
// to the raw prompt before submission. Every adapter applies this step; it is
// part of the request contract, not a passthrough.
func EnrichImagePrompt(spec ImageSpec) string {
	var b strings.Builder
	if prompt := strings.TrimSpace(spec.Prompt); prompt != "" {
		b.WriteString(prompt)
	} else {
		b.WriteString("Create a premium marketing image for the featured product.")
	}

	if name := strings.TrimSpace(spec.FormatName); name != "" {
		b.WriteString("\nCommercial format: ")
		b.WriteString(name)
		if desc := strings.TrimSpace(spec.FormatDescription); desc != "" {
			b.WriteString(" (")
			b.WriteString(desc)
			b.WriteString(")")
		}
		b.WriteString(".")
	}
	if spec.Width > 0 && spec.Height > 0 {
		fmt.Fprintf(&b, "\nTarget dimensions: %dx%d pixels.", spec.Width, spec.Height)
	}
	if aspect := strings.TrimSpace(spec.AspectRatio); aspect != "" {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(aspect)
		b.WriteString(".")
	}

	return b.String()
}

// EnrichVideoPrompt is the video counterpart of EnrichImagePrompt.
func EnrichVideoPrompt(spec VideoSpec) string {
	var b strings.Builder
	if prompt := strings.TrimSpace(spec.Prompt); prompt != "" {
		b.WriteString(prompt)
	} else {
		b.WriteString("Create a short promotional video for the featured product.")
	}

	if name := strings.TrimSpace(spec.FormatName); name != "" {
		b.WriteString("\nCommercial format: ")
		b.WriteString(name)
		if desc := strings.TrimSpace(spec.FormatDescription); desc != "" {
			b.WriteString(" (")
			b.WriteString(desc)
			b.WriteString(")")
		}
		b.WriteString(".")
	}
	if spec.Seconds > 0 {
		fmt.Fprintf(&b, "\nTarget duration: %d seconds.", spec.Seconds)
	}
	if aspect := strings.TrimSpace(spec.AspectRatio); aspect != "" {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(aspect)
		b.WriteString(".")
	}

	return b.String()
}
