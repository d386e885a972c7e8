package types

import "time"

// ============================================================================
//                              图变化事件
// ============================================================================

// EvtGraphChanged 发现图变化事件
//
// 每次监听器批量应用成功后最多发射一次，通过事件总线投递。
type EvtGraphChanged struct {
	// Source 触发者标识（通常为 namespace/name）
	Source string

	// Sequence 触发序号（单个通知器内单调递增）
	Sequence uint64

	// Time 触发时间
	Time time.Time
}
