package domain

import "errors"

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrDevConfigNotFound    = errors.New("developer config file not found")
	ErrPackageStoreNotFound = errors.New("package store directory not found")
	ErrWorkspaceNotFound    = errors.New("workspace directory not found")
	ErrSettingMissing       = errors.New("required web config setting missing")
	ErrBackupExists         = errors.New("backup file already exists")
	ErrBackupNotFound       = errors.New("backup file not found")
	ErrSourceNotFound       = errors.New("source file not found")
)
