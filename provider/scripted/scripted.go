// 脚本化内存交通状态提供者
// 不是物理仿真引擎：车辆是纯数据记录，位置、速度与等待时间按脚本推进，
// 用于测试与无中间件的演示运行
package scripted

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/container"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/randengine"
)

const minGap = 2.5 // 容量折算用最小间距，与度量引擎一致

// Vehicle 脚本化车辆记录
// 说明：字段可被测试直接修改，提供者不做一致性约束
type Vehicle struct {
	container.IncrementalItemBase

	ID           string
	LaneID       string
	Position     float64 // 距车道起点的位置
	Speed        float64
	LateralSpeed float64
	AllowedSpeed float64
	Waiting      float64 // 行程累计等待时间
	Visible      bool    // 是否可被检测
}

// Lane 脚本化车道
type Lane struct {
	ID                string
	Length            float64
	LastVehicleLength float64 // 上一步平均车长
}

// detector 车道区段检测器，观测某车道起始range长度内的车辆
type detector struct {
	laneID string
	length float64
}

// signalDef 受控信号灯定义与已安装程序
type signalDef struct {
	lanes    []string
	outLanes []string
	native   []entity.Phase
	program  []entity.Phase
	state    string
	stateLog []string // 依次记录所有被应用的状态串，供测试断言
}

// Provider 脚本化交通状态提供者
// 功能：实现entity.ITrafficProvider，车辆增删通过增量数组延迟到
// Step边界统一生效
type Provider struct {
	dt float64 // 每个tick对应的时间（秒），用于等待时间累计

	lanes     map[string]*Lane
	signals   map[string]*signalDef
	signalIDs []string
	detectors map[string]*detector
	bindings  map[string][]string // 信号灯ID->挂接的检测器ID列表

	vehicles *container.IncrementalArray[*Vehicle]
	byID     map[string]*Vehicle

	generator *randengine.Engine

	// 脚本化到达过程（可选）
	arrivalLanes []string
	arrivalP     float64
	arrivalSpeed float64

	step int32
}

// New 创建脚本化提供者
// 参数：seed-随机种子（用于脚本化到达过程）
func New(seed uint64) *Provider {
	return &Provider{
		dt:        1,
		lanes:     make(map[string]*Lane),
		signals:   make(map[string]*signalDef),
		signalIDs: make([]string, 0),
		detectors: make(map[string]*detector),
		bindings:  make(map[string][]string),
		vehicles:  container.NewIncrementalArray[*Vehicle](),
		byID:      make(map[string]*Vehicle),
		generator: randengine.New(seed),
	}
}

// 场景搭建

// AddLane 添加车道
func (p *Provider) AddLane(id string, length, lastVehicleLength float64) *Lane {
	l := &Lane{ID: id, Length: length, LastVehicleLength: lastVehicleLength}
	p.lanes[id] = l
	return l
}

// AddSignal 添加受控信号灯
// 参数：id-信号灯ID，lanes-受控进口车道（按连接顺序，可含重复），
// outLanes-出口车道，native-原生相位列表
func (p *Provider) AddSignal(id string, lanes, outLanes []string, native []entity.Phase) {
	p.signals[id] = &signalDef{
		lanes:    lanes,
		outLanes: outLanes,
		native:   native,
	}
	p.signalIDs = append(p.signalIDs, id)
}

// AddDetector 添加车道区段检测器
// 参数：id-检测器ID，laneID-观测车道，length-观测区段长度（自车道起点）
func (p *Provider) AddDetector(id string, laneID string, length float64) {
	p.detectors[id] = &detector{laneID: laneID, length: length}
}

// BindDetectors 记录信号灯与检测器的挂接关系
// 说明：提供者自身不消费该映射，场景自带挂接关系时由任务层读取，
// 免去外部输入配置
func (p *Provider) BindDetectors(signalID string, detectorIDs []string) {
	p.bindings[signalID] = detectorIDs
}

// DefaultDetectors 场景自带的检测器挂接关系
func (p *Provider) DefaultDetectors() map[string][]string {
	return p.bindings
}

// SetArrivalScript 配置脚本化到达过程
// 功能：每个Step以概率arrivalP在指定车道尾部生成一辆停滞车辆
func (p *Provider) SetArrivalScript(lanes []string, arrivalP, allowedSpeed float64) {
	p.arrivalLanes = lanes
	p.arrivalP = arrivalP
	p.arrivalSpeed = allowedSpeed
}

// Spawn 生成车辆（延迟到下一次Step生效）
// 返回：车辆记录指针，字段可直接修改
func (p *Provider) Spawn(v *Vehicle) *Vehicle {
	p.vehicles.Add(v)
	p.byID[v.ID] = v
	return v
}

// Despawn 移除车辆（延迟到下一次Step生效）
func (p *Provider) Despawn(v *Vehicle) {
	p.vehicles.Remove(v)
	delete(p.byID, v.ID)
}

// 仿真推进

// Step 推进一个tick
// 功能：统一应用延迟的车辆增删，推进脚本（停滞车辆累计等待时间，
// 脚本化到达过程按概率生成新车辆）
func (p *Provider) Step() {
	p.vehicles.Prepare()
	for _, v := range p.vehicles.Data() {
		if v.Speed < 0.1 {
			v.Waiting += p.dt
		}
	}
	if p.arrivalP > 0 {
		for _, laneID := range p.arrivalLanes {
			if p.generator.PTrue(p.arrivalP) {
				lane := p.lanes[laneID]
				p.Spawn(&Vehicle{
					ID:           fmt.Sprintf("veh_%d_%s", p.step, laneID),
					LaneID:       laneID,
					Position:     lane.Length * p.generator.Float64(),
					AllowedSpeed: p.arrivalSpeed,
					Visible:      true,
				})
			}
		}
	}
	p.step++
}

// 车道查询

func (p *Provider) laneVehicles(laneID string) []*Vehicle {
	return lo.Filter(p.vehicles.Data(), func(v *Vehicle, _ int) bool {
		return v.LaneID == laneID
	})
}

func (p *Provider) GetLaneVehicleIDs(laneID string) []string {
	return lo.Map(p.laneVehicles(laneID), func(v *Vehicle, _ int) string { return v.ID })
}

func (p *Provider) GetLaneVehicleCount(laneID string) int {
	return len(p.laneVehicles(laneID))
}

func (p *Provider) GetLaneHaltingCount(laneID string) int {
	return lo.CountBy(p.laneVehicles(laneID), func(v *Vehicle) bool { return v.Speed < 0.1 })
}

func (p *Provider) GetLaneLength(laneID string) float64 {
	return p.mustLane(laneID).Length
}

func (p *Provider) GetLaneLastStepLength(laneID string) float64 {
	return p.mustLane(laneID).LastVehicleLength
}

// 车辆查询

func (p *Provider) GetVehicleSpeed(vehicleID string) float64 {
	return p.mustVehicle(vehicleID).Speed
}

func (p *Provider) GetVehicleLateralSpeed(vehicleID string) float64 {
	return p.mustVehicle(vehicleID).LateralSpeed
}

func (p *Provider) GetVehicleAllowedSpeed(vehicleID string) float64 {
	return p.mustVehicle(vehicleID).AllowedSpeed
}

func (p *Provider) GetVehicleLanePosition(vehicleID string) float64 {
	return p.mustVehicle(vehicleID).Position
}

func (p *Provider) GetVehicleLaneID(vehicleID string) string {
	return p.mustVehicle(vehicleID).LaneID
}

func (p *Provider) GetVehicleAccumulatedWaitingTime(vehicleID string) float64 {
	return p.mustVehicle(vehicleID).Waiting
}

func (p *Provider) IsVehicleVisible(vehicleID string) bool {
	return p.mustVehicle(vehicleID).Visible
}

// 信号查询与写入

func (p *Provider) GetSignalIDs() []string {
	return p.signalIDs
}

func (p *Provider) GetControlledLanes(signalID string) []string {
	return p.mustSignal(signalID).lanes
}

func (p *Provider) GetControlledOutLanes(signalID string) []string {
	return p.mustSignal(signalID).outLanes
}

func (p *Provider) GetNativePhases(signalID string) []entity.Phase {
	return p.mustSignal(signalID).native
}

func (p *Provider) SetProgram(signalID string, phases []entity.Phase) error {
	def, ok := p.signals[signalID]
	if !ok {
		return fmt.Errorf("no signal %s", signalID)
	}
	if len(phases) == 0 {
		return fmt.Errorf("set signal %s with empty program", signalID)
	}
	def.program = phases
	return nil
}

func (p *Provider) SetSignalState(signalID string, state string) {
	def := p.mustSignal(signalID)
	def.state = state
	def.stateLog = append(def.stateLog, state)
}

// CurrentState 当前被应用的状态串（测试用）
func (p *Provider) CurrentState(signalID string) string {
	return p.mustSignal(signalID).state
}

// StateLog 依次记录的所有被应用状态串（测试用）
func (p *Provider) StateLog(signalID string) []string {
	return p.mustSignal(signalID).stateLog
}

// Program 已安装的完整相位程序（测试用）
func (p *Provider) Program(signalID string) []entity.Phase {
	return p.mustSignal(signalID).program
}

// 检测器查询

func (p *Provider) GetDetectorVehicleIDs(detectorID string) []string {
	d := p.mustDetector(detectorID)
	vehicles := lo.Filter(p.laneVehicles(d.laneID), func(v *Vehicle, _ int) bool {
		return v.Visible && v.Position <= d.length
	})
	return lo.Map(vehicles, func(v *Vehicle, _ int) string { return v.ID })
}

func (p *Provider) GetDetectorOccupancy(detectorID string) float64 {
	d := p.mustDetector(detectorID)
	lane := p.mustLane(d.laneID)
	capacity := d.length / (minGap + lane.LastVehicleLength)
	if capacity <= 0 {
		return 0.0
	}
	count := len(p.GetDetectorVehicleIDs(detectorID))
	return lo.Clamp(float64(count)/capacity, 0, 1)
}

// 查询辅助，ID不存在属于调用者错误，直接panic

func (p *Provider) mustLane(id string) *Lane {
	l, ok := p.lanes[id]
	if !ok {
		log.Panicf("no lane %s in scripted provider", id)
	}
	return l
}

func (p *Provider) mustVehicle(id string) *Vehicle {
	v, ok := p.byID[id]
	if !ok {
		log.Panicf("no vehicle %s in scripted provider", id)
	}
	return v
}

func (p *Provider) mustSignal(id string) *signalDef {
	s, ok := p.signals[id]
	if !ok {
		log.Panicf("no signal %s in scripted provider", id)
	}
	return s
}

func (p *Provider) mustDetector(id string) *detector {
	d, ok := p.detectors[id]
	if !ok {
		log.Panicf("no detector %s in scripted provider", id)
	}
	return d
}
