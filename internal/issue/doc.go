// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries remediation steps for CLI and configuration
// failures. The issue catalogue holds one Markdown guide per kind of script
// fault, rendered with glamour when the user asks for help.
package issue
