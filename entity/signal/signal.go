package signal

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

// VehicleLedger 车辆等待时间台账
// 功能：车辆ID->车道ID->该车累计等待时间中归属于该车道的份额
// 说明：修正提供者报告的"行程累计"等待时间，避免跨车道重复计算；
// 条目在车辆首次被观测到时创建，车辆离开路网后自然失效，
// 由SignalManager在回合边界统一清空（中间件不提供离开通知）
type VehicleLedger map[string]map[string]float64

// Signal 单路口信号灯控制器
// 功能：持有相位程序与时序状态，驱动相位切换，并基于交通状态计算
// 观测向量与奖励
// 说明：每个路口一个实例，实例之间相互独立；除"上一次度量"类标量外，
// 控制器对交通状态只读
type Signal struct {
	ctx      entity.ITaskContext
	provider entity.ITrafficProvider

	id         string
	deltaTime  int32 // 相邻两次控制决策之间的tick数
	yellowTime int32 // 黄灯持续tick数
	minGreen   int32 // 绿灯最短持续tick数
	maxGreen   int32 // 绿灯最长持续tick数（仅存储，不参与切换判定）

	program *Program

	// 运行时状态
	greenPhase               int32 // 当前绿灯相位索引
	isYellow                 bool  // 是否处于黄灯过渡中
	timeSinceLastPhaseChange int32 // 距上次相位变化的tick数
	nextActionTime           int32 // 下一次控制决策的tick

	lanes       []string           // 进口车道（去重保序）
	outLanes    []string           // 出口车道（去重）
	lanesLength map[string]float64 // 车道长度缓存
	detectors   []string           // 检测器ID列表（外部静态配置）

	prevLaneVehicleIDs     map[string][]string // 上一步各进口车道的可见车辆ID快照
	prevDetectorVehicleIDs map[string][]string // 上一步各检测器的车辆ID快照

	vehicles VehicleLedger // 等待时间台账（由SignalManager持有，所有控制器共享）

	observationFn ObservationFn
	rewardFn      RewardFn

	// diff类奖励的"上一次度量"，显式初始化为0.0
	lastMeasure  float64
	lastPressure float64
	lastAvgSpeed float64
	lastReward   float64
}

// NewSignal 创建信号灯控制器
// 功能：初始化控制器，编译并安装相位程序，构建车道拓扑缓存
// 参数：ctx-任务上下文，provider-交通状态提供者，id-信号灯ID，
// c-时序与策略配置，detectors-检测器ID列表，vehicles-共享等待时间台账，
// rewardSpec-奖励策略（命名或自定义），observationName-观测策略名
// 返回：初始化完成的控制器，配置错误时返回error
// 算法说明：
// 1. 校验时序参数：yellow_time必须小于delta_time，否则黄灯无法在下次
//    决策前完成
// 2. 解析奖励与观测策略（构造期一次性解析，不做运行时动态分发）
// 3. 编译原生相位并安装完整程序，立即应用第一个相位的状态
// 4. 构建车道拓扑：进口车道去重保序，出口车道去重，缓存车道长度
func NewSignal(
	ctx entity.ITaskContext,
	provider entity.ITrafficProvider,
	id string,
	c config.SignalControl,
	detectors []string,
	vehicles VehicleLedger,
	rewardSpec RewardSpec,
	observationName string,
) (*Signal, error) {
	if c.YellowTime >= c.DeltaTime {
		return nil, fmt.Errorf("yellow_time %d must be less than delta_time %d", c.YellowTime, c.DeltaTime)
	}
	rewardFn, err := resolveReward(rewardSpec)
	if err != nil {
		return nil, err
	}
	observationFn, err := resolveObservation(observationName)
	if err != nil {
		return nil, err
	}

	s := &Signal{
		ctx:            ctx,
		provider:       provider,
		id:             id,
		deltaTime:      c.DeltaTime,
		yellowTime:     c.YellowTime,
		minGreen:       c.MinGreen,
		maxGreen:       c.MaxGreen,
		nextActionTime: ctx.Clock().START_STEP,
		detectors:      detectors,
		vehicles:       vehicles,
		observationFn:  observationFn,
		rewardFn:       rewardFn,
	}

	program, err := BuildProgram(provider.GetNativePhases(id), c.YellowTime)
	if err != nil {
		return nil, fmt.Errorf("build program for signal %s: %w", id, err)
	}
	s.program = program
	if err := provider.SetProgram(id, program.All); err != nil {
		return nil, fmt.Errorf("install program for signal %s: %w", id, err)
	}
	provider.SetSignalState(id, program.All[0].State)

	s.lanes = lo.Uniq(provider.GetControlledLanes(id))
	s.outLanes = lo.Uniq(provider.GetControlledOutLanes(id))
	s.lanesLength = make(map[string]float64, len(s.lanes)+len(s.outLanes))
	for _, lane := range append(append([]string{}, s.lanes...), s.outLanes...) {
		s.lanesLength[lane] = provider.GetLaneLength(lane)
	}
	s.prevLaneVehicleIDs = make(map[string][]string, len(s.lanes))
	for _, lane := range s.lanes {
		s.prevLaneVehicleIDs[lane] = nil
	}
	s.prevDetectorVehicleIDs = make(map[string][]string, len(detectors))
	for _, det := range detectors {
		s.prevDetectorVehicleIDs[det] = nil
	}
	return s, nil
}

// 静态数据

func (s *Signal) String() string {
	return fmt.Sprintf("Signal %s", s.id)
}

// 获取信号灯ID
func (s *Signal) ID() string {
	return s.id
}

// 获取绿灯相位数
func (s *Signal) NumGreenPhases() int32 {
	return int32(len(s.program.Greens))
}

// 获取编译后的相位程序
func (s *Signal) Program() *Program {
	return s.program
}

// 获取进口车道列表（去重保序，观测向量的车道顺序以此为准）
func (s *Signal) Lanes() []string {
	return s.lanes
}

// 获取出口车道列表
func (s *Signal) OutLanes() []string {
	return s.outLanes
}

// 获取检测器ID列表
func (s *Signal) Detectors() []string {
	return s.detectors
}

// 运行时状态

// 获取当前绿灯相位索引
func (s *Signal) GreenPhase() int32 {
	return s.greenPhase
}

// 是否处于黄灯过渡中
func (s *Signal) IsYellow() bool {
	return s.isYellow
}

// 获取距上次相位变化的tick数
func (s *Signal) TimeSinceLastPhaseChange() int32 {
	return s.timeSinceLastPhaseChange
}

// ShouldAct 本tick是否轮到该信号灯做控制决策
// 说明：调用者只应在该方法为true时调用Request
func (s *Signal) ShouldAct() bool {
	return s.nextActionTime == s.ctx.Clock().Step
}

// Request 请求切换到目标绿灯相位
// 功能：校验并执行相位切换请求，必要时插入黄灯过渡
// 参数：target-目标绿灯相位索引，取值[0, NumGreenPhases)
// 返回：target越界时返回error（调用者错误，应视为致命）
// 算法说明：
// 1. target等于当前绿灯相位，或距上次变化不足yellow_time+min_green个tick：
//    拒绝请求，重新应用当前绿灯状态并把下次决策推迟delta_time（"还不能
//    切换"，区别于"选择保持"）
// 2. 否则：应用(当前绿灯->target)的黄灯状态，置黄灯标志，清零计时，
//    当前绿灯更新为target；黄灯状态保持到Advance完成过渡为止
func (s *Signal) Request(target int32) error {
	if target < 0 || target >= s.NumGreenPhases() {
		return fmt.Errorf("signal %s: phase %d out of range [0, %d)", s.id, target, s.NumGreenPhases())
	}
	now := s.ctx.Clock().Step
	if s.greenPhase == target || s.timeSinceLastPhaseChange < s.yellowTime+s.minGreen {
		s.provider.SetSignalState(s.id, s.program.All[s.greenPhase].State)
		s.nextActionTime = now + s.deltaTime
		return nil
	}
	yellow := s.program.YellowIndex[[2]int32{s.greenPhase, target}]
	s.provider.SetSignalState(s.id, s.program.All[yellow].State)
	s.greenPhase = target
	s.nextActionTime = now + s.deltaTime
	s.isYellow = true
	s.timeSinceLastPhaseChange = 0
	return nil
}

// Advance 推进一个仿真tick
// 功能：增加相位计时；黄灯过渡恰好持续yellow_time个tick后应用目标
// 绿灯相位的状态并清除黄灯标志
// 说明：每个仿真tick调用一次，与控制决策节奏（delta_time）无关
func (s *Signal) Advance() {
	s.timeSinceLastPhaseChange++
	if s.isYellow && s.timeSinceLastPhaseChange == s.yellowTime {
		s.provider.SetSignalState(s.id, s.program.All[s.greenPhase].State)
		s.isYellow = false
	}
}

// ComputeObservation 计算观测向量
// 说明：向量长度恒为NumGreenPhases+1+2*len(lanes)，车道顺序在构造时固定
func (s *Signal) ComputeObservation() []float64 {
	return s.observationFn(s)
}

// ObservationSize 观测向量长度
func (s *Signal) ObservationSize() int {
	return int(s.NumGreenPhases()) + 1 + 2*len(s.lanes)
}

// ComputeReward 计算标量奖励
func (s *Signal) ComputeReward() float64 {
	s.lastReward = s.rewardFn(s)
	return s.lastReward
}

// LastReward 上一次计算的奖励
func (s *Signal) LastReward() float64 {
	return s.lastReward
}

// reset 回合边界重置
// 功能：恢复初始相位与计时状态，清空快照与diff基线，重新应用第一个
// 相位的状态
// 说明：共享台账由SignalManager统一清空
func (s *Signal) reset() {
	s.greenPhase = 0
	s.isYellow = false
	s.timeSinceLastPhaseChange = 0
	s.nextActionTime = s.ctx.Clock().START_STEP
	s.lastMeasure = 0.0
	s.lastPressure = 0.0
	s.lastAvgSpeed = 0.0
	s.lastReward = 0.0
	for lane := range s.prevLaneVehicleIDs {
		s.prevLaneVehicleIDs[lane] = nil
	}
	for det := range s.prevDetectorVehicleIDs {
		s.prevDetectorVehicleIDs[det] = nil
	}
	s.provider.SetSignalState(s.id, s.program.All[0].State)
}
