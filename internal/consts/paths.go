package consts

import (
	"os"
	"path/filepath"
)

const (
	HomeDirName        = ".reminder"
	ConfigFileName     = "config.yaml"
	StoreFileName      = "reminder.json"
	HolidayCacheName   = "holiday_cache.json"
	DefaultHolidayAPI  = "http://timor.tech/api/holiday/year"
	DefaultTimezone    = "Local"
	DefaultRecipient   = "user"
	DefaultCommandName = "rmd"
)

func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, HomeDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), ConfigFileName)
}

func DefaultStorePath() string {
	return filepath.Join(HomeDir(), StoreFileName)
}

func DefaultHolidayCachePath() string {
	return filepath.Join(HomeDir(), HolidayCacheName)
}
