// Package correlation генерирует идентификаторы попыток оплаты.
package correlation

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefix префикс корреляционного идентификатора транзакции.
const Prefix = "watchhub_"

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewTransactionID возвращает уникальный, монотонно возрастающий идентификатор вида watchhub_<ulid>.
func NewTransactionID() string {
	mu.Lock()
	defer mu.Unlock()
	return Prefix + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

// Valid проверяет формат идентификатора.
func Valid(id string) bool {
	raw, ok := strings.CutPrefix(id, Prefix)
	if !ok || raw == "" {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(raw))
	return err == nil
}
