package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Adapter name keywords used when no config overrides them.
// The CJK entries are the localized Windows adapter names for "Ethernet" and "Wireless network".
var (
	DefaultVirtualKeywords  = []string{"vmware", "virtual", "virtualbox", "docker", "hyper-v", "mihomo"}
	DefaultPhysicalKeywords = []string{"ethernet", "以太网", "wlan", "wi-fi", "无线网络", "lan"}
)

// PlatformDefaults returns platform-specific default values
type PlatformDefaults struct {
	LogFile    string
	ConfigPath string
}

// GetPlatformDefaults returns platform-specific defaults based on runtime.GOOS
func GetPlatformDefaults() PlatformDefaults {
	switch runtime.GOOS {
	case "windows":
		return PlatformDefaults{
			LogFile:    userLogFile(),
			ConfigPath: `C:\ProgramData\AssetCollector\config.yaml`,
		}
	case "darwin":
		return PlatformDefaults{
			LogFile:    userLogFile(),
			ConfigPath: "/usr/local/etc/asset-collector/config.yaml",
		}
	default:
		// Linux and other unix-likes
		return PlatformDefaults{
			LogFile:    userLogFile(),
			ConfigPath: "/etc/asset-collector/config.yaml",
		}
	}
}

// userLogFile places the log in the operator's cache directory. The collector runs
// interactively as an ordinary user, so system log directories are not writable.
func userLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "asset-collector", "collector.log")
}

// GetDefaultConfigPath returns the platform-specific default config path
func GetDefaultConfigPath() string {
	return GetPlatformDefaults().ConfigPath
}

// UpdateConfigDefaults updates viper defaults with platform-specific values
func UpdateConfigDefaults(v interface{}) {
	type viper interface {
		SetDefault(key string, value interface{})
	}

	if viperInstance, ok := v.(viper); ok {
		defaults := GetPlatformDefaults()
		viperInstance.SetDefault("logging.file", defaults.LogFile)
	}
}
