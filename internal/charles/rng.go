package charles

import "math/rand"

// RNG 进化过程使用的随机数来源
// *rand.Rand 满足这个接口；测试中可以替换成固定序列的实现
type RNG interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRand 根据种子创建一个独立的随机数流
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// sample 不放回地从 items 中随机抽取 k 个元素，不修改 items
func sample(items []int, k int, rng RNG) []int {
	pool := make([]int, len(items))
	copy(pool, items)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:k]
}

// pickTwo 随机选出两个不同的下标
func pickTwo(n int, rng RNG) (int, int) {
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
