package main

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, invalid paths)
	ExitDataError   = 3 // Data error (unparseable document, validation failure)
	ExitNotFound    = 4 // Batch not found
	ExitConflict    = 5 // Batch already mid-validation
)
