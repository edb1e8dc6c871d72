// Package config loads registry settings from YAML or JSON files.
//
// Example file:
//
//	block_size: 16
//	max_threads: 1024
//	journal: ./threads.db
//	metrics: true
//	tracing: false
//	log_level: debug
//	destroy_waits: true
//
// Missing keys keep their defaults; values of the wrong type are ignored
// the same way.
package config
