package constants

const (
	AppName            = "sqirvy-health"
	BinaryName         = "sqirvy"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/sqirvy-health"
	DatabaseFileName   = "sqirvy-health.db"
	Version            = "v0.3.0"

	// EnvPrefix is the prefix for environment overrides (SQIRVY_BACKEND, SQIRVY_DATABASE, ...)
	EnvPrefix = "SQIRVY"
	// ConnectionEnvVar holds a PostgreSQL connection string when none is configured
	ConnectionEnvVar = "SQIRVY_DB_CONNECTION"

	// DateFormat is the calendar date format used as the day key (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is fixed width so lexical order matches chronological order
	TimestampFormat = "2006-01-02T15:04:05.000000Z"

	// Backend names
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "sqirvy-"
	BackupFileSuffix = ".db"

	// LockfileName sits next to the SQLite database
	LockfileName = "sqirvy.lock"

	// Rotating log file under the config directory
	LogDirName    = "logs"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// Legacy flat-file import
	LegacyMealsFile    = "meals.json"
	LegacyWeightFile   = "weight.json"
	LegacyBackupDir    = "legacy-backup"
	LegacyDefaultGoal  = 150.0
	DefaultQuantity    = 1.0
	MinSearchQueryLen  = 2
	DefaultSearchLimit = 10
	MaxWeight          = 1000.0
)
