package text

import (
	"fmt"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// Simplified returns a Transform that converts Traditional Chinese to
// Simplified Chinese with the OpenCC t2s tables. Text that fails to convert
// is returned unchanged. The Transform is safe for concurrent use.
func Simplified() (Transform, error) {
	cc, err := opencc.New("t2s")
	if err != nil {
		return nil, fmt.Errorf("load t2s tables: %w", err)
	}

	var mu sync.Mutex
	return func(s string) string {
		if s == "" {
			return s
		}

		mu.Lock()
		out, err := cc.Convert(s)
		mu.Unlock()
		if err != nil {
			return s
		}
		return out
	}, nil
}
