package gridsearch

// deriveSeed 把基础种子和 (组合, 运行) 编号混合成一个独立的种子（SplitMix64 终结函数）
// 同一组输入总是得到同一个种子，与 goroutine 调度顺序无关
func deriveSeed(base int64, combination, run int) int64 {
	stream := uint64(combination)<<32 | uint64(uint32(run))

	x := uint64(base) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
