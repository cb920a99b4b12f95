package entity

// 依赖倒置，表达信号灯控制器对交通状态提供者的接口需求。
// 提供者可以是远程SUMO中间件（provider/remote），也可以是内存脚本化实现
// （provider/scripted，用于测试与演示）。
// 所有查询都视为同步零延迟调用，一个控制步内对同一提供者的访问串行化。

// ITrafficProvider 交通状态提供者接口
type ITrafficProvider interface {
	// 仿真推进

	Step() // 推进底层仿真一个tick

	// 车道查询

	GetLaneVehicleIDs(laneID string) []string    // 上一步车道上的车辆ID列表
	GetLaneVehicleCount(laneID string) int       // 上一步车道上的车辆数
	GetLaneHaltingCount(laneID string) int       // 上一步车道上的停滞车辆数（速度<0.1）
	GetLaneLength(laneID string) float64         // 车道物理长度
	GetLaneLastStepLength(laneID string) float64 // 上一步车道上的平均车长

	// 车辆查询

	GetVehicleSpeed(vehicleID string) float64                  // 当前速度
	GetVehicleLateralSpeed(vehicleID string) float64           // 当前横向速度
	GetVehicleAllowedSpeed(vehicleID string) float64           // 当前允许速度
	GetVehicleLanePosition(vehicleID string) float64           // 在车道上的位置（距车道起点）
	GetVehicleLaneID(vehicleID string) string                  // 当前所在车道ID
	GetVehicleAccumulatedWaitingTime(vehicleID string) float64 // 行程累计等待时间
	IsVehicleVisible(vehicleID string) bool                    // 车辆是否可被检测（GPS/摄像头隐藏车辆为false）

	// 信号查询与写入

	GetSignalIDs() []string                           // 所有受控信号灯ID
	GetControlledLanes(signalID string) []string      // 受控进口车道（按连接顺序，可能重复）
	GetControlledOutLanes(signalID string) []string   // 受控连接的出口车道（可能重复）
	GetNativePhases(signalID string) []Phase          // 原生相位列表
	SetProgram(signalID string, phases []Phase) error // 安装完整相位程序
	SetSignalState(signalID string, state string)     // 立即设置当前原始状态串

	// 检测器查询

	GetDetectorVehicleIDs(detectorID string) []string // 上一步检测器覆盖范围内的车辆ID列表
	GetDetectorOccupancy(detectorID string) float64   // 上一步检测器占有率
}
