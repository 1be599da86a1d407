// Package ui provides the graphical user interface for the Bitmask client.
// This file contains the CSS styles for the status panel.
package ui

import (
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/yllada/bitmask-client/statuspanel"
)

// Uses theme-aware colors that work with system dark/light mode.
const appCSS = `
/* EIP toggle */
scale.eip-toggle trough {
    min-height: 24px;
    min-width: 64px;
    border-radius: 12px;
}

scale.eip-toggle slider {
    min-width: 22px;
    min-height: 22px;
    border-radius: 50%;
}

scale.eip-toggle-off trough {
    background-color: alpha(currentColor, 0.2);
}

scale.eip-toggle-on trough {
    background-color: #2ec27e;
}

scale.eip-toggle-inprogress trough {
    background-color: #e5a50a;
}

/* Status labels */
.eip-status {
    font-weight: 600;
}

.status-error {
    color: #e01b24;
    font-weight: 500;
}

.provider-label {
    opacity: 0.7;
    font-size: 11px;
}

/* Global status box */
.global-status {
    border-radius: 8px;
    padding: 6px 10px;
    background-color: alpha(#3584e4, 0.12);
}

.global-status.status-error {
    background-color: alpha(#e01b24, 0.12);
}

/* Throughput */
.throughput {
    font-family: monospace;
    font-size: 12px;
}

/* Status Bar */
.status-bar {
    border-top: 1px solid alpha(currentColor, 0.15);
    padding: 6px 12px;
    opacity: 0.8;
}

/* Settings */
.preferences-card {
    border-radius: 12px;
    border: 1px solid alpha(currentColor, 0.15);
}
`

// toggleStyleClass returns the CSS class for style.
func toggleStyleClass(style statuspanel.ToggleStyle) string {
	return "eip-toggle-" + style.String()
}

// LoadStyles loads the custom CSS styles for the application.
// Should be called during application startup.
func LoadStyles() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(appCSS)

	gtk.StyleContextAddProviderForDisplay(
		display,
		provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}
