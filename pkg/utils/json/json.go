// Package json 封装 JSON 编解码。amd64/arm64 上使用 sonic，其余平台退回 encoding/json。
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// RawMessage is a raw encoded JSON value.
type RawMessage = stdjson.RawMessage

// Encoder is a JSON encoder.
type Encoder interface {
	Encode(v any) error
}

// Decoder is a JSON decoder.
type Decoder interface {
	Decode(v any) error
}

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v any) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v any) error

	// MarshalIndent encodes v with the given prefix and indent.
	MarshalIndent func(v any, prefix, indent string) ([]byte, error)

	// NewEncoder creates a JSON encoder writing to w.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a JSON decoder reading from r.
	NewDecoder func(r io.Reader) Decoder
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		useSonic(sonic.ConfigStd)
		return
	}
	Marshal = stdjson.Marshal
	Unmarshal = stdjson.Unmarshal
	MarshalIndent = stdjson.MarshalIndent
	NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
}

// useSonic 切换到指定的 sonic 配置。
// ConfigStd 与 encoding/json 行为一致（map 键有序、HTML 转义），
// 缓存键和接地上下文依赖稳定输出。
func useSonic(api sonic.API) {
	Marshal = api.Marshal
	Unmarshal = api.Unmarshal
	MarshalIndent = api.MarshalIndent
	NewEncoder = func(w io.Writer) Encoder { return api.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return api.NewDecoder(r) }
}
