package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler перехватывает panic в фоновых горутинах.
// Фоновые операции (начисление рейтинга, закрытие ws-клиентов) не должны
// ронять процесс целиком.
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает обработчик с заданным логгером.
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic.
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recoverPanic()
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recoverPanic() {
	if r := recover(); r != nil {
		rh.logger.Errorf("goroutine: перехвачен panic: %v\n%s", r, debug.Stack())
	}
}

// DefaultRecoveryHandler пишет в стандартный logrus-логгер.
var DefaultRecoveryHandler = NewRecoveryHandler(logrus.StandardLogger())

// SafeGo запускает безопасную горутину через обработчик по умолчанию.
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext запускает безопасную горутину с контекстом.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
