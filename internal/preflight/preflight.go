package preflight

import "organize/internal/config"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes the checks for one run.
func RunAll(cfg *config.Config, sourceRoot, destRoot string) []Result {
	results := []Result{
		CheckSourceAccess(sourceRoot),
		CheckDestinationAccess(destRoot),
	}
	if cfg == nil {
		return results
	}
	if backend, ok := CheckVideoBackend(cfg); ok {
		results = append(results, backend)
	}
	return results
}

// Blocking returns the failed checks that must stop the run.
func Blocking(results []Result) []Result {
	var blocking []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			blocking = append(blocking, r)
		}
	}
	return blocking
}

// Warnings returns the failed optional checks.
func Warnings(results []Result) []Result {
	var warnings []Result
	for _, r := range results {
		if !r.Passed && r.Optional {
			warnings = append(warnings, r)
		}
	}
	return warnings
}
