package httptransport

import (
	"strings"

	"github.com/mssola/useragent"
)

// clientDevice extracts a human-readable device name from a User-Agent
// string, "Browser on OS" style. Connects are the session's audit anchor,
// so the log line says which browser performed them.
func clientDevice(userAgentString string) string {
	if userAgentString == "" {
		return "unknown device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = "unknown browser"
	}

	os := strings.TrimSpace(ua.OSInfo().Name)
	if os == "" {
		os = strings.TrimSpace(ua.OS())
	}
	if os == "" {
		return browser
	}
	return browser + " on " + os
}
