package config

import (
	"flag"
	"strings"
)

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagLOD    = flag.Int("lod", -1, "Level of detail to flatten")
	flagData   = flag.String("data", "", "Comma-separated asset directories")
	flagVPK    = flag.String("vpk", "", "Comma-separated VPK directory files")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLOD >= 0 {
		cfg.Model.LOD = *flagLOD
	}
	if paths := splitList(*flagData); len(paths) > 0 {
		cfg.Data.SearchPaths = paths
	}
	if archives := splitList(*flagVPK); len(archives) > 0 {
		cfg.Data.Archives = archives
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
