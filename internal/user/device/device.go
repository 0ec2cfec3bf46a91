// Package device turns raw User-Agent headers into short display labels
// recorded on login audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns a label such as "Chrome 120 on Windows 10".
func ParseUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return unknownDevice
	}
	ua := useragent.New(raw)

	browser, version := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	} else if major := majorVersion(version); major != "" {
		browser += " " + major
	}

	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	if ua.Bot() {
		browser = "Bot " + browser
	}
	return strings.Join(strings.Fields(browser+" on "+os), " ")
}

func majorVersion(version string) string {
	major, _, _ := strings.Cut(version, ".")
	return major
}
