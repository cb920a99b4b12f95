package signal

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

// Signal管理器
type SignalManager struct {
	ctx entity.ITaskContext

	data    map[string]*Signal
	signals []*Signal

	vehicles VehicleLedger // 等待时间台账（所有控制器共享的arena）
}

// NewManager 创建Signal管理器实例
// 功能：初始化Signal管理器，创建内部数据结构
// 参数：ctx-任务上下文
// 返回：新创建的Signal管理器实例
func NewManager(ctx entity.ITaskContext) *SignalManager {
	return &SignalManager{
		ctx:      ctx,
		data:     make(map[string]*Signal),
		signals:  make([]*Signal, 0),
		vehicles: make(VehicleLedger),
	}
}

// Init 初始化所有信号灯控制器
// 功能：向提供者查询所有受控信号灯，为每个信号灯编译并安装相位程序，
// 构建控制器实例
// 参数：provider-交通状态提供者，detectors-信号灯ID->检测器ID列表的
// 静态配置（外部持有，可为nil），timings-路口时序参数覆盖（可为nil）
// 说明：任何一个路口的程序无法安装（原生相位不合法、策略名未知）都是
// 致命错误，直接panic——没有合法的黄灯插入程序就无法运行该路口
func (m *SignalManager) Init(provider entity.ITrafficProvider, detectors map[string][]string, timings map[string]config.SignalControl) {
	c := m.ctx.RuntimeConfig().C.Signal
	ids := provider.GetSignalIDs()
	m.signals = lo.Map(ids, func(id string, _ int) *Signal {
		sc := c
		if override, ok := timings[id]; ok {
			sc = mergeTiming(c, override)
		}
		s, err := NewSignal(
			m.ctx, provider, id, sc,
			detectors[id], m.vehicles,
			RewardSpec{Name: sc.Reward}, sc.Observation,
		)
		if err != nil {
			log.Panicf("init signal %s error: %v", id, err)
		}
		return s
	})
	m.data = lo.SliceToMap(m.signals, func(s *Signal) (string, *Signal) {
		return s.id, s
	})
}

// mergeTiming 用路口级覆盖项替换全局时序配置中的对应字段
// 说明：覆盖项的零值字段表示继承全局配置
func mergeTiming(global, override config.SignalControl) config.SignalControl {
	merged := global
	if override.DeltaTime != 0 {
		merged.DeltaTime = override.DeltaTime
	}
	if override.YellowTime != 0 {
		merged.YellowTime = override.YellowTime
	}
	if override.MinGreen != 0 {
		merged.MinGreen = override.MinGreen
	}
	if override.MaxGreen != 0 {
		merged.MaxGreen = override.MaxGreen
	}
	if override.Reward != "" {
		merged.Reward = override.Reward
	}
	if override.Observation != "" {
		merged.Observation = override.Observation
	}
	return merged
}

// Get 根据ID获取信号灯控制器，如果不存在则panic
func (m *SignalManager) Get(id string) entity.ISignal {
	if s, ok := m.data[id]; !ok {
		log.Panicf("no id %s in signal data", id)
		return nil
	} else {
		return s
	}
}

// GetOrError 根据ID获取信号灯控制器（带错误处理）
func (m *SignalManager) GetOrError(id string) (entity.ISignal, error) {
	if s, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in signal data", id)
	} else {
		return s, nil
	}
}

// Signals 获取所有信号灯控制器（初始化时的固定顺序）
func (m *SignalManager) Signals() []entity.ISignal {
	return lo.Map(m.signals, func(s *Signal, _ int) entity.ISignal { return s })
}

// Update 更新阶段，所有控制器推进一个tick
// 功能：对所有控制器执行Advance，完成到期的黄灯过渡
// 说明：控制器之间相互独立，使用并行处理提高性能
func (m *SignalManager) Update() {
	parallel.GoFor(m.signals, func(s *Signal) { s.Advance() })
}

// Reset 回合边界重置
// 功能：清空等待时间台账，重置所有控制器的相位与快照状态
// 说明：台账只在回合边界清空，回合中离开路网的车辆条目保持惰性存在
func (m *SignalManager) Reset() {
	for veh := range m.vehicles {
		delete(m.vehicles, veh)
	}
	for _, s := range m.signals {
		s.reset()
	}
}
