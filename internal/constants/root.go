package constants

const (
	AppName            = "nudge"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/nudge/nudge.db"
	Version            = "v0.1.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "nudge-"
	BackupFileSuffix = ".db"

	// Queue categories that are not entity kinds
	QueueCategoryAction = "action"

	// DefaultQueueMaxItems is the number of queue entries generated for a day
	// when no setting overrides it.
	DefaultQueueMaxItems = 5
)
