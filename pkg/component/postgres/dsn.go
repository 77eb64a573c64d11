package postgres

import (
	"fmt"
	"strings"
)

// BuildDSN creates a key=value PostgreSQL DSN.
// 密码中包含空格、单引号或反斜杠时加引号并转义。
func BuildDSN(opts *Options) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opts.Host,
		opts.Port,
		opts.Username,
		quote(opts.Password),
		opts.Database,
		opts.SSLMode,
	)
}

func quote(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " '\\") {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return "'" + escaped + "'"
}
