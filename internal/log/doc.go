// Package log provides the structured logger used across secretgarden.
// Every record passes through SecureHandler, which masks credentials and
// secret sequences before they reach the output, even in verbose mode.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("role created", "user", "bakery", "pass", "hunter2") // pass=***REDACTED***
package log
