package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/attestate/kiwistand/log"
)

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = log.ConsoleEncoder
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = log.JSONEncoder
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder               LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel        string     `mapstructure:"app"`
	P2PLoggerLevel        string     `mapstructure:"p2p"`
	TrieLoggerLevel       string     `mapstructure:"trie"`
	StoreLoggerLevel      string     `mapstructure:"store"`
	MetaLoggerLevel       string     `mapstructure:"meta"`
	SyncLoggerLevel       string     `mapstructure:"sync"`
	GossipLoggerLevel     string     `mapstructure:"gossip"`
	DelegationLoggerLevel string     `mapstructure:"delegation"`
	MetricsLoggerLevel    string     `mapstructure:"metrics"`
}

// DefaultLoggingConfig logs every module at info in the console format.
func DefaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:               ConsoleLogEncoder,
		AppLoggerLevel:        defaultLoggingLevel.String(),
		P2PLoggerLevel:        defaultLoggingLevel.String(),
		TrieLoggerLevel:       defaultLoggingLevel.String(),
		StoreLoggerLevel:      defaultLoggingLevel.String(),
		MetaLoggerLevel:       zapcore.WarnLevel.String(),
		SyncLoggerLevel:       defaultLoggingLevel.String(),
		GossipLoggerLevel:     defaultLoggingLevel.String(),
		DelegationLoggerLevel: defaultLoggingLevel.String(),
		MetricsLoggerLevel:    zapcore.WarnLevel.String(),
	}
}
