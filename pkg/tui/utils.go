package tui

import (
	"fmt"
	"strings"

	"xchbal/pkg/config"
	"xchbal/pkg/utils"
)

func addressLabel(a config.AddressConfig) string {
	short := utils.ShortenAddress(strings.TrimSpace(a.Address), 10, 6)
	if a.Name == "" {
		return short
	}
	return fmt.Sprintf("%s (%s)", utils.TruncateString(a.Name, 20), short)
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}
