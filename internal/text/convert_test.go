package text

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplified(t *testing.T) {
	t2s, err := Simplified()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"測試小說", "测试小说"},
		{"第1章的正文內容。", "第1章的正文内容。"},
		{"關於", "关于"},
		{"简体不变", "简体不变"},
		{"Chapter 1", "Chapter 1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, t2s.Apply(tt.in), tt.in)
	}
}

func TestSimplified_KeepsRubyMarkers(t *testing.T) {
	t2s, err := Simplified()
	require.NoError(t, err)

	got := t2s("⟦RUBY:說|かんじ⟧")
	assert.Equal(t, "⟦RUBY:说|かんじ⟧", got)
}

func TestSimplified_Concurrent(t *testing.T) {
	t2s, err := Simplified()
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = t2s("內容")
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "内容", r)
	}
}
