package entity

import "github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"

// Manager依赖倒置

// entity/signal/signal.go的依赖倒置
type ISignal interface {
	// 获取信号灯ID
	ID() string
	// 获取绿灯相位数
	NumGreenPhases() int32
	// 获取当前绿灯相位索引
	GreenPhase() int32
	// 是否处于黄灯过渡中
	IsYellow() bool

	// 本tick是否轮到该信号灯做控制决策
	ShouldAct() bool
	// 请求切换到目标绿灯相位，必要时插入黄灯过渡
	Request(target int32) error
	// 每个仿真tick推进一次内部计时，完成到期的黄灯过渡
	Advance()

	// 计算观测向量（长度恒定）
	ComputeObservation() []float64
	// 计算标量奖励
	ComputeReward() float64
}

// entity/signal/manager.go的依赖倒置
type ISignalManager interface {
	// 初始化：编译并安装所有信号灯的相位程序
	// timings为路口时序参数覆盖（零值字段继承全局配置），可为nil
	Init(provider ITrafficProvider, detectors map[string][]string, timings map[string]config.SignalControl)

	// 输入信号灯ID，查找信号灯，如果不存在则panic
	Get(id string) ISignal
	// 输入信号灯ID，查找信号灯，如果不存在则返回error
	GetOrError(id string) (ISignal, error)
	// 所有信号灯（固定顺序）
	Signals() []ISignal

	Update() // 更新阶段：所有信号灯推进一个tick
	Reset()  // 回合边界：清空台账与快照，恢复初始相位
}
