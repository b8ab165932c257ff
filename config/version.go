package config

// 构建时通过 -ldflags 注入
var (
	Version    string = "dev"
	CommitHash string = ""
	BuildTime  string = ""
)

// IsProduction 判断是否为生产构建
func IsProduction() bool {
	return Version != "dev" && CommitHash != ""
}

// IsDevelopment 判断是否为开发构建
func IsDevelopment() bool {
	return Version == "dev"
}
