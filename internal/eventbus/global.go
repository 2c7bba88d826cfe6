package eventbus

import (
	"errors"
	"sync"
)

// ErrClosed шина закрыта и не принимает события
var ErrClosed = errors.New("eventbus closed")

var (
	globalMu  sync.RWMutex
	globalBus EventBus
)

// Init устанавливает глобальную шину процесса. nil сбрасывает её.
func Init(bus EventBus) {
	globalMu.Lock()
	globalBus = bus
	globalMu.Unlock()
}

// Global возвращает глобальную шину или nil
func Global() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}
