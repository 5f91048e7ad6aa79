package utils

import (
	"fmt"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Terminal colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	switch msgType {
	case DefaultMessage:
		s = DefaultColor + s
	case StatusMessage:
		s = StatusColor + s
	case SuccessMessage:
		s = SuccessColor + s
	case ErrorMessage:
		s = ErrorColor + s
	default:
		return s
	}
	return s + DefaultColor
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	secs := (d % time.Minute).Seconds()
	if d < time.Hour {
		return fmt.Sprintf("%dm %.2fs", int64(d/time.Minute), secs)
	}
	mins := int64((d % time.Hour) / time.Minute)
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm %.2fs", int64(d/time.Hour), mins, secs)
	}
	hours := int64((d % (24 * time.Hour)) / time.Hour)
	return fmt.Sprintf("%dd %dh %dm %.2fs", int64(d/(24*time.Hour)), hours, mins, secs)
}
