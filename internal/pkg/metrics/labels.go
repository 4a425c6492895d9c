package metrics

import "sync/atomic"

// DefaultServiceName 未调用 SetServiceName 时的 service 标签
const DefaultServiceName = "battle"

// Redis 指标的 store 标签：同一个连接池上不同用途的流量
const (
	StoreBattleState = "battle_state"
	StoreActionLock  = "action_lock"
	StoreOther       = "other"
)

// 存储操作的 result 标签
const (
	ResultOK    = "ok"
	ResultMiss  = "miss" // key 或行不存在
	ResultBusy  = "busy" // 操作锁被占用
	ResultError = "error"
)

var serviceName atomic.Pointer[string]

// SetServiceName 设置 service 标签，传空字符串恢复默认值
func SetServiceName(name string) {
	if name == "" {
		serviceName.Store(nil)
		return
	}
	serviceName.Store(&name)
}

// GetServiceName 当前的 service 标签
func GetServiceName() string {
	if name := serviceName.Load(); name != nil {
		return *name
	}
	return DefaultServiceName
}

func normalizeServiceName(name string) string {
	if name == "" {
		return GetServiceName()
	}
	return name
}
