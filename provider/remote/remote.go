// 远程交通状态提供者，通过WebSocket连接SUMO中间件
// 协议：每个请求是一个以endpoint为键的msgpack映射帧，附带查询参数；
// 中间件对每个请求同步返回一个响应帧，连接上的请求串行化
package remote

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
)

const (
	dialRetryInterval = time.Second
	dialMaxRetries    = 30
)

// phaseFrame 中间件相位的线上表示
type phaseFrame struct {
	Duration int32  `msgpack:"duration"`
	State    string `msgpack:"state"`
}

// Provider 远程交通状态提供者
// 功能：实现entity.ITrafficProvider，所有查询转发给中间件
// 说明：传输层错误直接panic，控制循环不具备降级运行的能力
type Provider struct {
	url  string
	conn *websocket.Conn
}

// New 创建远程提供者并连接中间件
// 参数：url-中间件WebSocket地址（如ws://127.0.0.1:5555）
// 说明：中间件可能晚于控制器启动，按固定间隔重试连接
func New(url string) *Provider {
	p := &Provider{url: url}
	for i := 0; ; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			p.conn = conn
			break
		}
		if i >= dialMaxRetries {
			log.Panicf("failed to connect to middleware %s: %v", url, err)
		}
		log.Warnf("failed to connect to middleware %s: %v, retrying", url, err)
		time.Sleep(dialRetryInterval)
	}
	log.Infof("connected to middleware %s", url)
	return p
}

// Close 关闭连接
// 说明：先发送stop帧通知中间件结束仿真
func (p *Provider) Close() error {
	p.call(map[string]any{"endpoint": "stop"}, nil)
	return p.conn.Close()
}

// call 发送一个请求帧并解码响应
// 参数：req-请求帧（必须含endpoint键），resp-响应解码目标，nil表示丢弃响应
func (p *Provider) call(req map[string]any, resp any) {
	data, err := msgpack.Marshal(req)
	if err != nil {
		log.Panicf("failed to encode %s request: %v", req["endpoint"], err)
	}
	if err := p.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		log.Panicf("failed to send %s request: %v", req["endpoint"], err)
	}
	_, data, err = p.conn.ReadMessage()
	if err != nil {
		log.Panicf("failed to read %s response: %v", req["endpoint"], err)
	}
	if resp == nil {
		return
	}
	if err := msgpack.Unmarshal(data, resp); err != nil {
		log.Panicf("failed to decode %s response: %v", req["endpoint"], err)
	}
}

func (p *Provider) callStrings(endpoint string, params map[string]any) []string {
	req := map[string]any{"endpoint": endpoint}
	for k, v := range params {
		req[k] = v
	}
	var resp struct {
		Values []string `msgpack:"values"`
	}
	p.call(req, &resp)
	return resp.Values
}

func (p *Provider) callFloat(endpoint string, params map[string]any) float64 {
	req := map[string]any{"endpoint": endpoint}
	for k, v := range params {
		req[k] = v
	}
	var resp struct {
		Value float64 `msgpack:"value"`
	}
	p.call(req, &resp)
	return resp.Value
}

func (p *Provider) callInt(endpoint string, params map[string]any) int {
	req := map[string]any{"endpoint": endpoint}
	for k, v := range params {
		req[k] = v
	}
	var resp struct {
		Value int `msgpack:"value"`
	}
	p.call(req, &resp)
	return resp.Value
}

// 仿真推进

func (p *Provider) Step() {
	p.call(map[string]any{"endpoint": "step"}, nil)
}

// 车道查询

func (p *Provider) GetLaneVehicleIDs(laneID string) []string {
	return p.callStrings("lane.vehicle_ids", map[string]any{"lane": laneID})
}

func (p *Provider) GetLaneVehicleCount(laneID string) int {
	return p.callInt("lane.vehicle_count", map[string]any{"lane": laneID})
}

func (p *Provider) GetLaneHaltingCount(laneID string) int {
	return p.callInt("lane.halting_count", map[string]any{"lane": laneID})
}

func (p *Provider) GetLaneLength(laneID string) float64 {
	return p.callFloat("lane.length", map[string]any{"lane": laneID})
}

func (p *Provider) GetLaneLastStepLength(laneID string) float64 {
	return p.callFloat("lane.last_step_length", map[string]any{"lane": laneID})
}

// 车辆查询

func (p *Provider) GetVehicleSpeed(vehicleID string) float64 {
	return p.callFloat("vehicle.speed", map[string]any{"vehicle": vehicleID})
}

func (p *Provider) GetVehicleLateralSpeed(vehicleID string) float64 {
	return p.callFloat("vehicle.lateral_speed", map[string]any{"vehicle": vehicleID})
}

func (p *Provider) GetVehicleAllowedSpeed(vehicleID string) float64 {
	return p.callFloat("vehicle.allowed_speed", map[string]any{"vehicle": vehicleID})
}

func (p *Provider) GetVehicleLanePosition(vehicleID string) float64 {
	return p.callFloat("vehicle.lane_position", map[string]any{"vehicle": vehicleID})
}

func (p *Provider) GetVehicleLaneID(vehicleID string) string {
	req := map[string]any{"endpoint": "vehicle.lane_id", "vehicle": vehicleID}
	var resp struct {
		Value string `msgpack:"value"`
	}
	p.call(req, &resp)
	return resp.Value
}

func (p *Provider) GetVehicleAccumulatedWaitingTime(vehicleID string) float64 {
	return p.callFloat("vehicle.accumulated_waiting_time", map[string]any{"vehicle": vehicleID})
}

func (p *Provider) IsVehicleVisible(vehicleID string) bool {
	req := map[string]any{"endpoint": "vehicle.visible", "vehicle": vehicleID}
	var resp struct {
		Value bool `msgpack:"value"`
	}
	p.call(req, &resp)
	return resp.Value
}

// 信号查询与写入

func (p *Provider) GetSignalIDs() []string {
	return p.callStrings("trafficlight.ids", nil)
}

func (p *Provider) GetControlledLanes(signalID string) []string {
	return p.callStrings("trafficlight.controlled_lanes", map[string]any{"trafficlight": signalID})
}

func (p *Provider) GetControlledOutLanes(signalID string) []string {
	return p.callStrings("trafficlight.controlled_out_lanes", map[string]any{"trafficlight": signalID})
}

func (p *Provider) GetNativePhases(signalID string) []entity.Phase {
	req := map[string]any{"endpoint": "trafficlight.phases", "trafficlight": signalID}
	var resp struct {
		Phases []phaseFrame `msgpack:"phases"`
	}
	p.call(req, &resp)
	phases := make([]entity.Phase, 0, len(resp.Phases))
	for _, f := range resp.Phases {
		phases = append(phases, entity.Phase{Duration: f.Duration, State: f.State})
	}
	return phases
}

func (p *Provider) SetProgram(signalID string, phases []entity.Phase) error {
	frames := make([]phaseFrame, 0, len(phases))
	for _, ph := range phases {
		frames = append(frames, phaseFrame{Duration: ph.Duration, State: ph.State})
	}
	req := map[string]any{
		"endpoint":     "trafficlight.set_program",
		"trafficlight": signalID,
		"phases":       frames,
	}
	var resp struct {
		Error string `msgpack:"error"`
	}
	p.call(req, &resp)
	if resp.Error != "" {
		return fmt.Errorf("set program for %s: %s", signalID, resp.Error)
	}
	return nil
}

func (p *Provider) SetSignalState(signalID string, state string) {
	p.call(map[string]any{
		"endpoint":     "trafficlight.set_state",
		"trafficlight": signalID,
		"state":        state,
	}, nil)
}

// 检测器查询

func (p *Provider) GetDetectorVehicleIDs(detectorID string) []string {
	return p.callStrings("detector.vehicle_ids", map[string]any{"detector": detectorID})
}

func (p *Provider) GetDetectorOccupancy(detectorID string) float64 {
	return p.callFloat("detector.occupancy", map[string]any{"detector": detectorID})
}
