package signal

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/container"
)

// RewardFn 奖励策略
// 功能：从控制器与度量引擎的当前状态产生标量奖励
// 说明：diff类策略会更新控制器上的"上一次度量"字段
type RewardFn func(s *Signal) float64

// RewardSpec 奖励策略选择
// 功能：命名策略或调用者提供的自定义策略，构造时一次性解析
// 说明：Custom非nil时优先生效，Name被忽略
type RewardSpec struct {
	Name   string
	Custom RewardFn
}

// 命名奖励策略表
var rewardFns = map[string]RewardFn{
	"diff-waiting-time": DiffWaitingTimeReward,
	"average-speed":     AverageSpeedReward,
	"queue":             QueueReward,
	"pressure":          PressureReward,
	"diff-pressure":     DiffPressureReward,
	"diff-avg-speed":    DiffAverageSpeedReward,
	"highest-occupancy": HighestOccupancyReward,
}

// RegisterRewardFn 注册奖励策略
// 功能：向命名策略表中注册新的奖励策略
// 返回：重复注册同名策略属于配置错误，返回error
func RegisterRewardFn(name string, fn RewardFn) error {
	if _, ok := rewardFns[name]; ok {
		return fmt.Errorf("reward function %s already exists", name)
	}
	rewardFns[name] = fn
	return nil
}

// resolveReward 解析奖励策略
func resolveReward(spec RewardSpec) (RewardFn, error) {
	if spec.Custom != nil {
		return spec.Custom, nil
	}
	fn, ok := rewardFns[spec.Name]
	if !ok {
		return nil, fmt.Errorf("reward function %s not implemented", spec.Name)
	}
	return fn, nil
}

// DiffWaitingTimeReward 累计等待时间之差
// 功能：上一次总等待时间减去当前总等待时间（缩放1/100），并把当前值
// 存为新基线；等待时间下降（策略改善）得到正奖励
// 说明：基线显式初始化为0.0，首次调用不读取未定义状态
func DiffWaitingTimeReward(s *Signal) float64 {
	tsWait := lo.Sum(s.GetAccumulatedWaitingTimePerLane()) / 100.0
	reward := s.lastMeasure - tsWait
	s.lastMeasure = tsWait
	return reward
}

// AverageSpeedReward 路口平均速度
func AverageSpeedReward(s *Signal) float64 {
	return s.GetAverageSpeed()
}

// QueueReward 停滞车辆总数取负
func QueueReward(s *Signal) float64 {
	return -float64(s.GetTotalQueued())
}

// PressureReward 路口压力
func PressureReward(s *Signal) float64 {
	return s.GetPressure()
}

// DiffPressureReward 压力相对上一次的带符号增量
func DiffPressureReward(s *Signal) float64 {
	current := s.GetPressure()
	diff := current - s.lastPressure
	s.lastPressure = current
	return diff
}

// DiffAverageSpeedReward 平均速度相对上一次的带符号增量
func DiffAverageSpeedReward(s *Signal) float64 {
	current := s.GetAverageSpeed()
	diff := current - s.lastAvgSpeed
	s.lastAvgSpeed = current
	return diff
}

// HighestOccupancyReward 最高占有率车道匹配奖励
// 功能：当前绿灯相位对应最高占有率车道时+0.1，否则-0.1；所有车道
// 占有率为0时返回0.0
// 算法说明：小顶堆按占有率取负入堆，堆顶即最高占有率车道
func HighestOccupancyReward(s *Signal) float64 {
	occupancy := s.GetOccupancyPerLane()
	if lo.EveryBy(occupancy, func(o float64) bool { return o == 0 }) {
		return 0.0
	}
	occupancyHeap := container.NewPriorityQueue[int32]()
	for i, o := range occupancy {
		occupancyHeap.Push(int32(i), -o)
	}
	occupancyHeap.Heapify()
	if occupancyHeap.First() == s.greenPhase {
		return 0.1
	}
	return -0.1
}
