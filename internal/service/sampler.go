package service

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler 从 ids 中等概率随机选取 k 个不同元素
type Sampler interface {
	Sample(ids []uint, k int) []uint
}

type RandSampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandSampler(seed int64) *RandSampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSampler{rnd: rand.New(rand.NewSource(seed))}
}

// Sample 对 ids 的副本做部分 Fisher-Yates 洗牌
func (s *RandSampler) Sample(ids []uint, k int) []uint {
	if k > len(ids) {
		k = len(ids)
	}
	if k <= 0 {
		return []uint{}
	}

	pool := make([]uint, len(ids))
	copy(pool, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + s.rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
