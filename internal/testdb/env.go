package testdb

import "os"

// URL environment variables, checked in order.
var urlEnvVars = []string{"TRAINER_TEST_DATABASE_URL", "DATABASE_URL", "TRAINER_DATABASE_URL"}

// GetTestDatabaseURL returns the first configured test database URL, or "".
func GetTestDatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}
