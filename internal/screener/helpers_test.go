package screener

import "github.com/wonny/pennyscan/pkg/config"

func defaultLogConfig() *config.Config {
	return &config.Config{Env: "development", LogLevel: "info", LogFormat: "json"}
}
