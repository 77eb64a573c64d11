package app

import (
	"github.com/kart-io/version"
)

// GetVersion 返回构建时通过 ldflags 注入的 git 版本，未注入时为 version 包的默认值。
func GetVersion() string {
	return version.Get().GitVersion
}
