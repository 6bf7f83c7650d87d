package config

// Store backends.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
)

// Store defaults.
const (
	DefaultStoreBackend = BackendMemory
	DefaultStorePath    = ""
	DefaultStoreFixture = ""
)

// Job defaults.
const (
	DefaultTitleMaxLength = 36
	DefaultFailOnInvalid  = false
)

// Index defaults. The candidate is the file the datastore emulator writes
// next to the project checkout.
const (
	DefaultIndexBasePath      = "index.yaml"
	DefaultIndexCandidatePath = "../cloud_datastore_emulator_cache/WEB-INF/index.yaml"
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultMetricsFile  = ""
	DefaultEnvironment  = ""
)
