// Package config loads and validates sqlitei configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SQLITEI_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The configuration only feeds the command line tool and the table browser.
// Library callers build database.Config directly.
//
// Usage:
//
//	cfg, err := config.Load("sqlitei.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Path)
package config
