package gemini_test

import (
	"errors"
	"fmt"

	"github.com/kart-io/loan-advisor/pkg/llm"
	_ "github.com/kart-io/loan-advisor/pkg/llm/gemini"
)

// 演示通过注册表创建 Gemini 供应商。
func ExampleNewProvider() {
	provider, err := llm.NewConversationProvider("gemini", map[string]any{
		"api_key": "YOUR_GEMINI_API_KEY",
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(provider.Name())
	// Output: gemini
}

// 未配置密钥时返回 llm.ErrNotConfigured，调用方据此进入不可用状态。
func ExampleNewProvider_notConfigured() {
	_, err := llm.NewConversationProvider("gemini", map[string]any{})
	fmt.Println(errors.Is(err, llm.ErrNotConfigured))
	// Output: true
}
