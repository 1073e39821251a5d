// Package logger provides structured logging built on zerolog.
//
// It supports JSON and console output, level configuration, a process-wide
// global logger and component-scoped child loggers.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("di")
//	log.Debug("entry registered", logger.Fields("key", key.String()))
package logger
