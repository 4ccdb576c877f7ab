// Package model defines shared data structures.
package model

import "time"

// Config defines generation settings.
type Config struct {
	Bits        int `validate:"gte=0,lte=500"`
	Rows        int `validate:"gte=1,lte=100"`
	ModelPath   string
	Audit       bool
	DBPath      string `validate:"required_if=Audit true"`
	MetricsFile string
	LogLevel    string `validate:"oneof=debug info warn error"`
	LogFile     string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	ModelName   string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// GenerationRecord is the audit entry for one generated password. It holds
// counts only: never the password, its characters or its bits.
type GenerationRecord struct {
	GeneratedAt   time.Time
	ModelName     string
	RequestedBits int
	SymbolCount   int
	PasswordRunes int
	// BitHistogram maps bits spent on a symbol to how many symbols spent it.
	BitHistogram map[int]int
}

// GenerationAggregate summarizes a stored generation for reporting.
type GenerationAggregate struct {
	ID            int64
	GeneratedAt   time.Time
	ModelName     string
	RequestedBits int
	SymbolCount   int
	PasswordRunes int
}

// BitBucket counts symbols that spent the same number of bits.
type BitBucket struct {
	Bits    int
	Symbols int
}
