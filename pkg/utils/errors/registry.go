package errors

import (
	"fmt"
	"sync"
)

// registry 保存所有已声明的错误码，响应层据此把数字码还原为 Errno。
var registry = struct {
	sync.RWMutex
	byCode map[int]*Errno
}{byCode: make(map[int]*Errno)}

// Register 登记 e 并返回它，用于包级变量声明。重复的错误码会 panic。
func Register(e *Errno) *Errno {
	registry.Lock()
	defer registry.Unlock()

	if prev, ok := registry.byCode[e.Code]; ok {
		panic(fmt.Sprintf("errno %d registered twice: %q and %q", e.Code, prev.MessageEN, e.MessageEN))
	}
	registry.byCode[e.Code] = e
	return e
}

// Lookup returns the Errno registered under code.
func Lookup(code int) (*Errno, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.byCode[code]
	return e, ok
}
