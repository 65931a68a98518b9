// Package device turns request user agents into short display labels used in
// audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns a label such as "Chrome on Intel Mac OS X 10_15_7".
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	if ua.Mobile() && !strings.Contains(os, ua.Platform()) {
		os = ua.Platform() + " " + os
	}

	return strings.Join(strings.Fields(browser+" on "+os), " ")
}
