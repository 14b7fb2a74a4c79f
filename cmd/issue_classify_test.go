package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIssueType(t *testing.T) {
	tests := []struct {
		description string
		expected    string
	}{
		// Bug keywords
		{"Fix login loop after password reset", "bug"},
		{"fix broken authentication", "bug"},
		{"Crash on startup", "bug"},
		{"Error handling in API", "bug"},
		{"Regression in search results", "bug"},
		{"Login fails intermittently", "bug"},
		{"Fault in payment processing", "bug"},
		{"Defect in report generation", "bug"},
		{"Issue with dashboard loading", "bug"},
		{"Upload not working", "bug"},

		// Feature keywords
		{"Add dark mode", "feature"},
		{"Implement user profiles", "feature"},
		{"Support CSV export", "feature"},
		{"Allow filtering by owner", "feature"},
		{"Would be nice to sort by priority", "feature"},

		// Problem (default)
		{"Slow dashboard", "problem"},
		{"Reports look wrong", "problem"},
		{"Billing totals inconsistent", "problem"},

		// Case insensitivity
		{"FIX the thing that is wrong", "bug"},
		{"IMPLEMENT the module", "feature"},

		// "fix" at end of string
		{"Minor cosmetic button fix", "bug"},
		// "fix:" variant
		{"Fix: auth flow loops", "bug"},

		// Bug takes precedence over feature
		{"Fix the new export", "bug"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyIssueType(tt.description))
		})
	}
}

func TestClassifyIssuePriority(t *testing.T) {
	tests := []struct {
		description string
		expected    string
	}{
		// High priority
		{"Critical: database corruption", "high"},
		{"Urgent fix needed for auth", "high"},
		{"Blocker for release", "high"},
		{"App crash on login", "high"},
		{"Security vulnerability in API", "high"},
		{"Data loss when saving forms", "high"},
		{"Production down", "high"},
		{"P0: system outage", "high"},
		{"P1: degraded performance", "high"},

		// Low priority
		{"Minor UI alignment issue", "low"},
		{"Nice to have: dark mode toggle animation", "low"},
		{"Cosmetic fix for button color", "low"},
		{"Trivial typo in tooltip", "low"},
		{"Low priority: update footer text", "low"},
		{"Cleanup unused CSS classes", "low"},
		{"Clean up old log files", "low"},

		// Medium (default)
		{"Add user profiles", "medium"},
		{"Implement search", "medium"},
		{"Refactor auth module", "medium"},
		{"Update documentation", "medium"},

		// Case insensitivity
		{"CRITICAL outage", "high"},
		{"MINOR text change", "low"},

		// High takes precedence over low
		{"Critical cleanup needed", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyIssuePriority(tt.description))
		})
	}
}
