package task

import (
	"flag"

	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
)

const (
	SelfName = "rlsignal" // 本程序在控制任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// ActionFn 动作来源
// 功能：在信号灯轮到决策时给出目标绿灯相位
// 参数：s-信号灯控制器，observation-观测向量，reward-本次决策的奖励
// 返回：目标绿灯相位索引
// 说明：每个决策点恰好调用一次；保持当前相位也要返回当前相位索引，
// 否则该信号灯不再被调度
type ActionFn func(s entity.ISignal, observation []float64, reward float64) int32

// FixedAction 固定配时动作来源
// 说明：始终保持当前绿灯相位，信号灯按初始程序运行
func FixedAction(s entity.ISignal, observation []float64, reward float64) int32 {
	return s.GreenPhase()
}

// randAction 均匀随机动作来源，用于基线对照与联调
func (ctx *Context) randAction(s entity.ISignal, observation []float64, reward float64) int32 {
	return int32(ctx.generator.Intn(int(s.NumGreenPhases())))
}

// step 推进一个控制tick
// 功能：对所有轮到决策的信号灯计算观测与奖励并执行动作，然后推进
// 底层仿真、信号灯状态机与时钟
// 返回：本tick各决策的奖励之和与决策数
// 算法说明：
// 1. 决策阶段：对ShouldAct的信号灯依次计算观测、奖励，调用动作来源，
//    执行Request；相位索引越界属于动作来源缺陷，直接panic
// 2. 推进阶段：提供者前进一个tick，所有信号灯Advance（并行），时钟Tick
func (ctx *Context) step() (float64, int) {
	sum := 0.0
	n := 0
	for _, s := range ctx.signalManager.Signals() {
		if !s.ShouldAct() {
			continue
		}
		observation := s.ComputeObservation()
		reward := s.ComputeReward()
		sum += reward
		n++
		target := ctx.actionFn(s, observation, reward)
		if err := s.Request(target); err != nil {
			log.Panicf("failed to act on signal %s: %v", s.ID(), err)
		}
	}
	ctx.provider.Step()
	ctx.signalManager.Update()
	ctx.clock.Tick()
	return sum, n
}

// Run 运行一个控制回合
// 功能：从START_STEP推进到END_STEP，驱动决策与仿真交替进行
// 返回：整个回合的平均奖励（无决策时为0）
// 说明：可重复调用，每次调用前重置时钟与所有信号灯状态
func (ctx *Context) Run() float64 {
	ctx.clock.Init()
	ctx.signalManager.Reset()

	sum := 0.0
	n := 0
	for !ctx.clock.Done() {
		if ctx.clock.Step%int32(*heartBeatInterval) == 0 {
			hour, minute, second := ctx.clock.GetHourMinuteSecond()
			log.Infof(
				"STEP: %d(%d:%d:%.2f)",
				ctx.clock.Step,
				hour, minute, second,
			)
		}
		s, c := ctx.step()
		sum += s
		n += c
	}

	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	log.Infof("episode complete: %d decisions, mean reward %.5f", n, mean)
	return mean
}
