package core

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// OptionExtractor simplifies extraction of interaction options.
type OptionExtractor struct {
	options []*discordgo.ApplicationCommandInteractionDataOption
}

// NewOptionExtractor creates a new option extractor.
func NewOptionExtractor(options []*discordgo.ApplicationCommandInteractionDataOption) *OptionExtractor {
	return &OptionExtractor{options: options}
}

// String extracts a string option by name.
func (e *OptionExtractor) String(name string) string {
	for _, opt := range e.options {
		if opt.Name == name {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}

// StringRequired extracts a required string option.
func (e *OptionExtractor) StringRequired(name string) (string, error) {
	value := e.String(name)
	if value == "" {
		return "", NewValidationError(name, fmt.Sprintf("Option %q is required", name))
	}
	return value, nil
}

// Bool extracts a boolean option by name.
func (e *OptionExtractor) Bool(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return false
}

// Int extracts an integer option by name.
func (e *OptionExtractor) Int(name string) int64 {
	for _, opt := range e.options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return 0
}

// User extracts a user option's ID by name.
func (e *OptionExtractor) User(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// Role extracts a role option's ID by name.
func (e *OptionExtractor) Role(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionRole {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// Channel extracts a channel option's ID by name.
func (e *OptionExtractor) Channel(name string) string {
	for _, opt := range e.options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			if v, ok := opt.Value.(string); ok {
				return v
			}
		}
	}
	return ""
}

// HasOption checks whether an option exists.
func (e *OptionExtractor) HasOption(name string) bool {
	for _, opt := range e.options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// ProcessCommaSeparatedList parses a comma-separated string into trimmed,
// non-empty items.
func ProcessCommaSeparatedList(input string) []string {
	if input == "" {
		return nil
	}
	items := strings.Split(input, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// TruncateString shortens a string to maxLen, ellipsized.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
