package signal

import (
	"math"

	"github.com/samber/lo"
)

// MinGap 车辆间最小间距（长度单位），车道容量按
// lane_length/(MinGap+last_step_vehicle_length)折算
const MinGap = 2.5

// 占有率统计区间的长度限制（距路口最近的一段）
const (
	occupancyMinLength = 25.0
	occupancyMaxLength = 35.0
)

// round5 保留5位小数
func round5(x float64) float64 {
	return math.Round(x*1e5) / 1e5
}

// laneCapacity 车道容量（可容纳的车辆数）
func (s *Signal) laneCapacity(lane string) float64 {
	return s.lanesLength[lane] / (MinGap + s.provider.GetLaneLastStepLength(lane))
}

// GetLanesDensity 计算各进口车道的密度
// 功能：车道上的车辆数除以车道容量，限制在[0,1]，保留5位小数
// 返回：按固定车道顺序的密度列表
func (s *Signal) GetLanesDensity() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		density := float64(s.provider.GetLaneVehicleCount(lane)) / s.laneCapacity(lane)
		return round5(math.Min(1, density))
	})
}

// GetOutLanesDensity 计算各出口车道的密度，限制在[0,1]
func (s *Signal) GetOutLanesDensity() []float64 {
	return lo.Map(s.outLanes, func(lane string, _ int) float64 {
		density := float64(s.provider.GetLaneVehicleCount(lane)) / s.laneCapacity(lane)
		return math.Min(1, density)
	})
}

// GetLanesQueue 计算各进口车道的排队
// 功能：车道上的停滞车辆数除以车道容量，限制在[0,1]
// 返回：按固定车道顺序的排队列表
func (s *Signal) GetLanesQueue() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		queue := float64(s.provider.GetLaneHaltingCount(lane)) / s.laneCapacity(lane)
		return math.Min(1, queue)
	})
}

// GetOutLanesQueue 计算各出口车道的排队，限制在[0,1]
func (s *Signal) GetOutLanesQueue() []float64 {
	return lo.Map(s.outLanes, func(lane string, _ int) float64 {
		queue := float64(s.provider.GetLaneHaltingCount(lane)) / s.laneCapacity(lane)
		return math.Min(1, queue)
	})
}

// GetTotalQueued 路口所有进口车道的停滞车辆总数
func (s *Signal) GetTotalQueued() int {
	return lo.SumBy(s.lanes, func(lane string) int {
		return s.provider.GetLaneHaltingCount(lane)
	})
}

// GetPressure 计算路口压力
// 功能：(出口车道车辆总数-进口车道车辆总数)/两者之和，取值[-1,1]，
// 正值表示路口排出快于流入
// 说明：分母为0时返回0.0
func (s *Signal) GetPressure() float64 {
	leaving := lo.SumBy(s.outLanes, func(lane string) int {
		return s.provider.GetLaneVehicleCount(lane)
	})
	approaching := lo.SumBy(s.lanes, func(lane string) int {
		return s.provider.GetLaneVehicleCount(lane)
	})
	if leaving+approaching == 0 {
		return 0.0
	}
	return float64(leaving-approaching) / float64(leaving+approaching)
}

// GetAverageSpeed 计算路口平均速度
// 功能：进口车道上所有车辆(速度/允许速度)的均值
// 说明：没有车辆时返回1.0（表示"无拥堵"而非"无速度"，是diff类奖励的
// 基线锚点，必须精确保持）
func (s *Signal) GetAverageSpeed() float64 {
	vehicles := s.vehicleList()
	if len(vehicles) == 0 {
		return 1.0
	}
	avgSpeed := 0.0
	for _, veh := range vehicles {
		avgSpeed += s.provider.GetVehicleSpeed(veh) / s.provider.GetVehicleAllowedSpeed(veh)
	}
	return avgSpeed / float64(len(vehicles))
}

// GetOccupancyPerLane 计算各进口车道靠近路口区段的占有率
// 功能：统计车道起始sectionLength长度内的车辆数，除以该区段按MinGap
// 折算的容量，保留5位小数
// 算法说明：
// 1. 区段长度取0.25*车道长度，限制在[25,35]；车道本身不足25时取车道长度
// 2. 区段容量为0时返回0.0，避免除零
func (s *Signal) GetOccupancyPerLane() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		laneLength := s.lanesLength[lane]
		sectionLength := 0.25 * laneLength
		if sectionLength > occupancyMaxLength {
			sectionLength = occupancyMaxLength
		} else if sectionLength < occupancyMinLength {
			if laneLength > occupancyMinLength {
				sectionLength = occupancyMinLength
			} else {
				sectionLength = laneLength
			}
		}
		count := 0
		for _, veh := range s.provider.GetLaneVehicleIDs(lane) {
			if s.provider.GetVehicleLanePosition(veh) <= sectionLength {
				count++
			}
		}
		capacity := sectionLength / (MinGap + s.provider.GetLaneLastStepLength(lane))
		if capacity <= 0 {
			return 0.0
		}
		return round5(float64(count) / capacity)
	})
}

// GetAccumulatedWaitingTimePerLane 计算各进口车道的累计等待时间
// 功能：对车道上每辆车，从台账中取出或创建条目，该车在当前车道的份额为
// 行程累计等待时间减去已归属到其他车道的份额之和；写回台账后按车道求和
// 返回：按固定车道顺序的累计等待时间列表，保留5位小数
// 说明：提供者报告的是行程累计值而非单车道值，直接求和会把此前车道上的
// 等待时间重复计入，台账修正即为此而设
func (s *Signal) GetAccumulatedWaitingTimePerLane() []float64 {
	waitTimePerLane := make([]float64, 0, len(s.lanes))
	for _, lane := range s.lanes {
		waitTime := 0.0
		for _, veh := range s.provider.GetLaneVehicleIDs(lane) {
			vehLane := s.provider.GetVehicleLaneID(veh)
			acc := s.provider.GetVehicleAccumulatedWaitingTime(veh)
			if entry, ok := s.vehicles[veh]; !ok {
				s.vehicles[veh] = map[string]float64{vehLane: acc}
			} else {
				other := 0.0
				for l, w := range entry {
					if l != vehLane {
						other += w
					}
				}
				entry[vehLane] = acc - other
			}
			waitTime += s.vehicles[veh][vehLane]
		}
		waitTimePerLane = append(waitTimePerLane, round5(waitTime))
	}
	return waitTimePerLane
}

// GetDistToIntersectionPerLane 计算各进口车道上最靠近路口的车辆距离
// 说明：车道为空时取1000（视为无穷远）
func (s *Signal) GetDistToIntersectionPerLane() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		vehicles := s.provider.GetLaneVehicleIDs(lane)
		if len(vehicles) == 0 {
			return 1000
		}
		minDist := math.Inf(1)
		for _, veh := range vehicles {
			if d := s.provider.GetVehicleLanePosition(veh); d < minDist {
				minDist = d
			}
		}
		return round5(minDist)
	})
}

// GetAverageLaneSpeeds 计算各进口车道的归一化平均速度
// 功能：车道上车辆速度之和除以车辆数再除以允许速度之和
// 说明：车道为空时取1.0，允许速度之和为0时取0.0
func (s *Signal) GetAverageLaneSpeeds() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		vehicles := s.provider.GetLaneVehicleIDs(lane)
		if len(vehicles) == 0 {
			return 1.0
		}
		totalSpeed := 0.0
		totalAllowedSpeed := 0.0
		for _, veh := range vehicles {
			totalSpeed += s.provider.GetVehicleSpeed(veh)
			totalAllowedSpeed += s.provider.GetVehicleAllowedSpeed(veh)
		}
		if totalAllowedSpeed <= 0 {
			return 0.0
		}
		return totalSpeed / float64(len(vehicles)) / totalAllowedSpeed
	})
}

// GetDetectorOccupancy 获取各检测器上一步占有率
func (s *Signal) GetDetectorOccupancy() []float64 {
	return lo.Map(s.detectors, func(det string, _ int) float64 {
		return s.provider.GetDetectorOccupancy(det)
	})
}

// GetDetectorPressure 从检测器车辆ID集合差分计算压力（有状态）
// 功能：outgoing为上一步快照中存在而本步消失的车辆数，incoming为本步
// 可见的车辆总数（绝对量，非差分），压力=incoming-outgoing
// 返回：按固定检测器顺序的压力列表
// 说明：incoming为绝对量而outgoing为差分量是有意的不对称（本步看得见的
// 都算流入，消失的才算流出），按观测到的行为保留，不做"修正"；
// 本步快照无条件整体替换上一步快照
func (s *Signal) GetDetectorPressure() []int {
	current := make(map[string][]string, len(s.detectors))
	for _, det := range s.detectors {
		current[det] = s.provider.GetDetectorVehicleIDs(det)
	}
	pressures := make([]int, 0, len(s.detectors))
	for _, det := range s.detectors {
		outgoing := 0
		currentSet := lo.SliceToMap(current[det], func(id string) (string, struct{}) {
			return id, struct{}{}
		})
		for _, id := range s.prevDetectorVehicleIDs[det] {
			if _, ok := currentSet[id]; !ok {
				outgoing++
			}
		}
		pressures = append(pressures, len(current[det])-outgoing)
	}
	s.prevDetectorVehicleIDs = current
	return pressures
}

// GetLanesPressureHidden 从可见车辆ID集合差分计算各进口车道压力（有状态）
// 功能：与GetDetectorPressure相同的差分口径，但作用于进口车道且只统计
// 可见车辆（GPS/摄像头观测不到的隐藏车辆被过滤）
func (s *Signal) GetLanesPressureHidden() []int {
	current := make(map[string][]string, len(s.lanes))
	for _, lane := range s.lanes {
		current[lane] = lo.Filter(s.provider.GetLaneVehicleIDs(lane), func(id string, _ int) bool {
			return s.provider.IsVehicleVisible(id)
		})
	}
	pressures := make([]int, 0, len(s.lanes))
	for _, lane := range s.lanes {
		outgoing := 0
		currentSet := lo.SliceToMap(current[lane], func(id string) (string, struct{}) {
			return id, struct{}{}
		})
		for _, id := range s.prevLaneVehicleIDs[lane] {
			if _, ok := currentSet[id]; !ok {
				outgoing++
			}
		}
		pressures = append(pressures, len(current[lane])-outgoing)
	}
	s.prevLaneVehicleIDs = current
	return pressures
}

// GetLanesDensityHidden 只统计可见车辆的进口车道密度
func (s *Signal) GetLanesDensityHidden() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		visible := lo.CountBy(s.provider.GetLaneVehicleIDs(lane), func(id string) bool {
			return s.provider.IsVehicleVisible(id)
		})
		return float64(visible) / s.laneCapacity(lane)
	})
}

// GetLanesQueueHidden 只统计可见且停滞车辆的进口车道排队
// 说明：停滞按合成速度（纵向与横向的模）小于0.1判定
func (s *Signal) GetLanesQueueHidden() []float64 {
	return lo.Map(s.lanes, func(lane string, _ int) float64 {
		halting := lo.CountBy(s.provider.GetLaneVehicleIDs(lane), func(id string) bool {
			speed := math.Hypot(s.provider.GetVehicleLateralSpeed(id), s.provider.GetVehicleSpeed(id))
			return s.provider.IsVehicleVisible(id) && speed < 0.1
		})
		return float64(halting) / s.laneCapacity(lane)
	})
}

// vehicleList 进口车道上所有车辆的ID列表
func (s *Signal) vehicleList() []string {
	vehicles := make([]string, 0)
	for _, lane := range s.lanes {
		vehicles = append(vehicles, s.provider.GetLaneVehicleIDs(lane)...)
	}
	return vehicles
}
