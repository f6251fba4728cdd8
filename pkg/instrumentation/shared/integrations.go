// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"os"
	"slices"
	"strings"
)

// IntegrationEnabled reports whether an integration should install its
// interception hooks.
//
// Environment variables:
//   - OTEL_AUTO_ENABLED_INTEGRATIONS: comma-separated allow list; when set,
//     only the named integrations run.
//   - OTEL_AUTO_DISABLED_INTEGRATIONS: comma-separated deny list, applied
//     after the allow list.
//
// With neither variable set every integration is enabled. Names are matched
// case-insensitively.
func IntegrationEnabled(integrationName string) bool {
	name := strings.ToLower(integrationName)

	if enabledList := os.Getenv("OTEL_AUTO_ENABLED_INTEGRATIONS"); enabledList != "" {
		if !slices.Contains(parseIntegrationList(enabledList), name) {
			return false
		}
	}
	if disabledList := os.Getenv("OTEL_AUTO_DISABLED_INTEGRATIONS"); disabledList != "" {
		if slices.Contains(parseIntegrationList(disabledList), name) {
			return false
		}
	}
	return true
}

func parseIntegrationList(list string) []string {
	var result []string
	for _, item := range strings.Split(list, ",") {
		trimmed := strings.TrimSpace(strings.ToLower(item))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
