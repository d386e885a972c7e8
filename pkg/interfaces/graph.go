package interfaces

// GraphCondition 可等待的图变化条件
//
// 外部等待集通过 C() 阻塞等待，读取通道即消费一次信号。
type GraphCondition interface {
	C() <-chan struct{}
}

// GraphNotifier 图变化通知器
//
// Trigger 不阻塞，且不得获取节点锁。
type GraphNotifier interface {
	GraphCondition

	Trigger() error
}
