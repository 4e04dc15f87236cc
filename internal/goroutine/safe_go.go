package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/spaces-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic.
// Фоновые владельцы (ws hub, reconciler) не должны ронять процесс.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic()
		fn(ctx)
	}()
}

func recoverPanic() {
	if r := recover(); r != nil {
		logger.WithComponent("goroutine").Errorf("panic в горутине: %v\nstack:\n%s", r, debug.Stack())
	}
}
