package signal

import "fmt"

// ObservationFn 观测策略
// 功能：从控制器与度量引擎的当前状态产生定长数值向量
type ObservationFn func(s *Signal) []float64

// 命名观测策略表，构造时一次性解析
var observationFns = map[string]ObservationFn{
	"default": DefaultObservation,
}

// RegisterObservationFn 注册观测策略
// 功能：向命名策略表中注册新的观测策略
// 返回：重复注册同名策略属于配置错误，返回error
func RegisterObservationFn(name string, fn ObservationFn) error {
	if _, ok := observationFns[name]; ok {
		return fmt.Errorf("observation function %s already exists", name)
	}
	observationFns[name] = fn
	return nil
}

// resolveObservation 按名称解析观测策略
func resolveObservation(name string) (ObservationFn, error) {
	fn, ok := observationFns[name]
	if !ok {
		return nil, fmt.Errorf("observation function %s not implemented", name)
	}
	return fn, nil
}

// DefaultObservation 默认观测
// 功能：[当前绿灯相位one-hot, min_green标志, 各车道密度, 各车道排队]
// 算法说明：
// 1. one-hot长度等于绿灯相位数
// 2. min_green标志：距上次相位变化不足min_green+yellow_time个tick时为0，
//    否则为1
// 3. 密度与排队按构造时固定的车道顺序排列
// 说明：向量长度恒为NumGreenPhases+1+2*len(lanes)，在控制器生命周期内不变
func DefaultObservation(s *Signal) []float64 {
	obs := make([]float64, 0, s.ObservationSize())
	for i := int32(0); i < s.NumGreenPhases(); i++ {
		if i == s.greenPhase {
			obs = append(obs, 1)
		} else {
			obs = append(obs, 0)
		}
	}
	if s.timeSinceLastPhaseChange < s.minGreen+s.yellowTime {
		obs = append(obs, 0)
	} else {
		obs = append(obs, 1)
	}
	obs = append(obs, s.GetLanesDensity()...)
	obs = append(obs, s.GetLanesQueue()...)
	return obs
}
