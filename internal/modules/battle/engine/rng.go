package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source 所有随机抽取的唯一入口，测试中可替换为脚本化实现
type Source interface {
	// IntN 返回 [0, n) 的均匀整数
	IntN(n int) int
	// Float64 返回 [0, 1) 的均匀浮点数
	Float64() float64
}

// lockedSource 多个玩家的请求会并发使用同一个 Source
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewSource 固定种子的 PCG 随机源，相同种子产生相同序列
func NewSource(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource 使用 crypto/rand 播种
func NewRandomSource() Source {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return NewSource(rand.Uint64())
	}
	return NewSource(binary.LittleEndian.Uint64(buf[:]))
}

// shuffleInts 原地 Fisher-Yates 洗牌
func shuffleInts(src Source, ids []int) {
	for i := len(ids) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// sampleInts 不放回抽取 k 个（部分 Fisher-Yates），不修改入参
func sampleInts(src Source, ids []int, k int) []int {
	pool := append([]int(nil), ids...)
	if k >= len(pool) {
		return pool
	}
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
