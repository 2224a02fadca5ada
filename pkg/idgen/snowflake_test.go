package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestGeneratePrefixedNumbers(t *testing.T) {
	Init(1)

	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"支付单号", GenerateOrderNo, "ORD"},
		{"流水号", GenerateTransactionNo, "TXN"},
		{"预约单号", GenerateBookingNo, "BKG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			no := tt.gen()
			if !strings.HasPrefix(no, tt.prefix) {
				t.Errorf("单号 %s 缺少前缀 %s", no, tt.prefix)
			}
			// 前缀3位 + 时间戳14位 + 雪花后8位
			if len(no) != 25 {
				t.Errorf("单号长度 = %d, want 25: %s", len(no), no)
			}
		})
	}
}

func TestNextIDUnique(t *testing.T) {
	Init(1)

	const goroutines = 10
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for j := 0; j < perGoroutine; j++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("发现重复ID: %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("生成 %d 个ID, want %d", len(seen), goroutines*perGoroutine)
	}
}
