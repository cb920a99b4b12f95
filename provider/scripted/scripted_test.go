package scripted_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/provider/scripted"
)

func newProvider() *scripted.Provider {
	p := scripted.New(7)
	p.AddLane("in_0", 100, 5)
	p.AddLane("out_0", 100, 5)
	p.AddSignal("tl", []string{"in_0"}, []string{"out_0"}, []entity.Phase{
		{Duration: 30, State: "G"},
		{Duration: 30, State: "r"},
	})
	p.AddDetector("det", "in_0", 50)
	return p
}

func TestSpawnDeferredToStep(t *testing.T) {
	p := newProvider()

	p.Spawn(&scripted.Vehicle{ID: "v1", LaneID: "in_0", Position: 10, Visible: true})
	assert.Equal(t, 0, p.GetLaneVehicleCount("in_0"))
	p.Step()
	assert.Equal(t, 1, p.GetLaneVehicleCount("in_0"))
	assert.Equal(t, []string{"v1"}, p.GetLaneVehicleIDs("in_0"))
	assert.Equal(t, "in_0", p.GetVehicleLaneID("v1"))
}

func TestWaitingAccumulation(t *testing.T) {
	p := newProvider()

	halting := p.Spawn(&scripted.Vehicle{ID: "h", LaneID: "in_0", Visible: true})
	moving := p.Spawn(&scripted.Vehicle{ID: "m", LaneID: "in_0", Speed: 5, Visible: true})
	p.Step()
	p.Step()
	p.Step()

	// 停滞车辆每步累计等待，行驶车辆不累计
	assert.Equal(t, 3.0, halting.Waiting)
	assert.Equal(t, 0.0, moving.Waiting)
	assert.Equal(t, 2, p.GetLaneVehicleCount("in_0"))
	assert.Equal(t, 1, p.GetLaneHaltingCount("in_0"))
}

func TestDetectorSection(t *testing.T) {
	p := newProvider()

	p.Spawn(&scripted.Vehicle{ID: "near", LaneID: "in_0", Position: 40, Visible: true})
	p.Spawn(&scripted.Vehicle{ID: "far", LaneID: "in_0", Position: 60, Visible: true})
	p.Spawn(&scripted.Vehicle{ID: "hidden", LaneID: "in_0", Position: 30, Visible: false})
	p.Step()

	// 区段内且可见的车辆才被检测
	assert.Equal(t, []string{"near"}, p.GetDetectorVehicleIDs("det"))
	// 区段容量 = 50/7.5
	assert.InDelta(t, 1.0/(50/7.5), p.GetDetectorOccupancy("det"), 1e-9)
}

func TestSignalStateLog(t *testing.T) {
	p := newProvider()

	assert.Equal(t, []string{"tl"}, p.GetSignalIDs())
	assert.Nil(t, p.SetProgram("tl", []entity.Phase{{Duration: 60, State: "G"}}))
	assert.NotNil(t, p.SetProgram("tl", nil))
	assert.NotNil(t, p.SetProgram("nope", nil))

	p.SetSignalState("tl", "G")
	p.SetSignalState("tl", "y")
	assert.Equal(t, "y", p.CurrentState("tl"))
	assert.Equal(t, []string{"G", "y"}, p.StateLog("tl"))
}

func TestArrivalScript(t *testing.T) {
	p := newProvider()
	p.SetArrivalScript([]string{"in_0"}, 1.0, 13.89)

	// 到达概率为1：每步必有一辆新车
	p.Step()
	assert.Equal(t, 0, p.GetLaneVehicleCount("in_0")) // 本步生成，下步生效
	p.Step()
	assert.Equal(t, 1, p.GetLaneVehicleCount("in_0"))
	p.Step()
	assert.Equal(t, 2, p.GetLaneVehicleCount("in_0"))
}

func TestDemoScenario(t *testing.T) {
	p := scripted.NewDemo(1)

	assert.Equal(t, []string{"tl_0"}, p.GetSignalIDs())
	assert.Equal(t, 4, len(p.GetControlledLanes("tl_0")))
	assert.Equal(t, 4, len(p.GetControlledOutLanes("tl_0")))
	assert.Equal(t, 2, len(p.GetNativePhases("tl_0")))
	assert.Equal(t, 4, len(p.DefaultDetectors()["tl_0"]))
	assert.Equal(t, 100.0, p.GetLaneLength("n_in_0"))
	assert.Equal(t, 5.0, p.GetLaneLastStepLength("n_in_0"))
}
