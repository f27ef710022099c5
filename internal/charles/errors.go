package charles

import "errors"

// 所有错误都以 "charles: " 开头，调用方通过 errors.Is 判断类型
var (
	// ErrInvalidConfiguration 表示种群或进化参数非法（例如宾客数不能被桌数整除）
	ErrInvalidConfiguration = errors.New("charles: invalid configuration")

	// ErrInvalidPartition 表示某个座位安排违反了划分约束
	// 这是算子实现上的错误，进化过程遇到它会直接终止
	ErrInvalidPartition = errors.New("charles: invalid partition")

	// ErrGuestNotSeated 表示试图从某张桌子移走一个不在该桌的宾客
	ErrGuestNotSeated = errors.New("charles: guest not seated at table")

	// ErrGuestAlreadySeated 表示试图把宾客安排到他已经在的桌子
	ErrGuestAlreadySeated = errors.New("charles: guest already seated at table")

	// ErrAsymmetricMatrix 表示关系矩阵不对称
	ErrAsymmetricMatrix = errors.New("charles: relationship matrix is not symmetric")

	// ErrUnknownOperator 表示按名字查找算子失败
	ErrUnknownOperator = errors.New("charles: unknown operator")
)
