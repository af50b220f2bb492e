package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 应用配置
type Config struct {
	Port       string
	DBPath     string // sqlite: grid reference, labels, queue
	DataDir    string // raw OD CSV sources, one per year
	AppDataDir string // parquet aggregate artifacts
	MetaCSV    string // grid metadata CSV, imported when grid_cells is empty
	Years      []int  // configured partition years, injected everywhere
	JWTSecret  string // empty disables auth on mutating endpoints
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{
		Port:       envOrDefault("PORT", ":8000"),
		DBPath:     envOrDefault("DB_PATH", "./appdata/od.db"),
		DataDir:    envOrDefault("DATA_DIR", "./data"),
		AppDataDir: envOrDefault("APPDATA_DIR", "./appdata"),
		MetaCSV:    envOrDefault("META_CSV", "./data/grid_metadata/grid_metadata.csv"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}

	years, err := parseYears(envOrDefault("OD_YEARS", "2018,2021,2024"))
	if err != nil {
		return nil, err
	}
	cfg.Years = years

	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseYears parses a comma-separated year list, e.g. "2018,2021,2024".
func parseYears(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	years := make([]int, 0, len(parts))
	seen := make(map[int]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid OD_YEARS entry %q: %w", p, err)
		}
		if seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("OD_YEARS must list at least one year")
	}
	return years, nil
}
