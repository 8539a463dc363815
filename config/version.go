package config

// 构建时通过 -ldflags "-X github.com/anoixa/image-gallery/config.Version=..." 注入
var (
	Version    = "dev"
	CommitHash = ""
)

// IsDevelopment 未注入版本号的本地构建
func IsDevelopment() bool {
	return Version == "dev"
}
