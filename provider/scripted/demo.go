package scripted

import "github.com/tsinghua-fib-lab/rlsignal-oss/entity"

// NewDemo 创建内置演示场景
// 功能：构建一个单路口四进口场景，南北/东西两个原生绿灯相位，
// 每条进口车道挂接一个80米区段检测器，车辆按泊松到达脚本生成
// 说明：无中间件时的默认运行场景，也用于联调
func NewDemo(seed uint64) *Provider {
	p := New(seed)

	inLanes := []string{"n_in_0", "s_in_0", "e_in_0", "w_in_0"}
	outLanes := []string{"s_out_0", "n_out_0", "w_out_0", "e_out_0"}
	for _, id := range inLanes {
		p.AddLane(id, 100, 5)
	}
	for _, id := range outLanes {
		p.AddLane(id, 100, 5)
	}

	p.AddSignal("tl_0", inLanes, outLanes, []entity.Phase{
		{Duration: 30, State: "GGrr"},
		{Duration: 30, State: "rrGG"},
	})
	detectors := make([]string, 0, len(inLanes))
	for _, id := range inLanes {
		p.AddDetector("det_"+id, id, 80)
		detectors = append(detectors, "det_"+id)
	}
	p.BindDetectors("tl_0", detectors)
	p.SetArrivalScript(inLanes, 0.3, 13.89)
	return p
}
