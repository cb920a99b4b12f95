package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/clock"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity/signal"
	"github.com/tsinghua-fib-lab/rlsignal-oss/provider/scripted"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

// testContext 测试用任务上下文
type testContext struct {
	clock         *clock.Clock
	provider      entity.ITrafficProvider
	signalManager entity.ISignalManager
	runtimeConfig *config.RuntimeConfig
}

func (ctx *testContext) Clock() *clock.Clock                  { return ctx.clock }
func (ctx *testContext) Provider() entity.ITrafficProvider    { return ctx.provider }
func (ctx *testContext) SignalManager() entity.ISignalManager { return ctx.signalManager }
func (ctx *testContext) RuntimeConfig() *config.RuntimeConfig { return ctx.runtimeConfig }

// newTestIntersection 构建单路口测试场景：四条进口、四条出口车道，
// 南北/东西两个原生绿灯相位
func newTestIntersection(c config.Control) (*testContext, *scripted.Provider) {
	p := scripted.New(42)
	inLanes := []string{"n_in", "s_in", "e_in", "w_in"}
	outLanes := []string{"s_out", "n_out", "w_out", "e_out"}
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
	ctx := &testContext{
		clock:         clock.New(c.Step),
		provider:      p,
		runtimeConfig: config.NewRuntimeConfig(config.Config{Control: c}),
	}
	return ctx, p
}

func testControl() config.Control {
	return config.Control{
		Step: config.ControlStep{Start: 0, Total: 1000, Interval: 1},
		Signal: config.SignalControl{
			DeltaTime:  5,
			YellowTime: 4,
			MinGreen:   10,
			MaxGreen:   50,
			Reward:     "queue",
		},
	}
}

// newTestSignal 用给定配置直接构建一个控制器
func newTestSignal(t *testing.T, c config.Control) (*testContext, *scripted.Provider, *signal.Signal) {
	// delta_time必须大于yellow_time，校验由NewSignal负责
	ctx, p := newTestIntersection(c)
	s, err := signal.NewSignal(
		ctx, p, "tl_0", c.Signal, nil, make(signal.VehicleLedger),
		signal.RewardSpec{Name: "queue"}, "default",
	)
	assert.Nil(t, err)
	return ctx, p, s
}

func TestNewSignalInstallsProgram(t *testing.T) {
	_, p, s := newTestSignal(t, testControl())

	assert.Equal(t, int32(2), s.NumGreenPhases())
	assert.Equal(t, int32(0), s.GreenPhase())
	assert.False(t, s.IsYellow())
	// 完整程序被安装到提供者，第一个相位的状态立即生效
	assert.Equal(t, 4, len(p.Program("tl_0")))
	assert.Equal(t, "GGrr", p.CurrentState("tl_0"))
}

func TestNewSignalRejectsBadTiming(t *testing.T) {
	c := testControl()
	c.Signal.YellowTime = 5 // 等于delta_time，黄灯无法在下次决策前完成
	ctx, p := newTestIntersection(c)
	_, err := signal.NewSignal(
		ctx, p, "tl_0", c.Signal, nil, make(signal.VehicleLedger),
		signal.RewardSpec{Name: "queue"}, "default",
	)
	assert.NotNil(t, err)
}

func TestRequestRejectedBeforeMinDwell(t *testing.T) {
	ctx, p, s := newTestSignal(t, testControl())

	// step 0：刚初始化，距上次变化0个tick，不足yellow+min_green=14
	assert.True(t, s.ShouldAct())
	assert.Nil(t, s.Request(1))
	// 拒绝：重新应用当前绿灯，推迟下次决策，没有黄灯
	assert.Equal(t, int32(0), s.GreenPhase())
	assert.False(t, s.IsYellow())
	assert.Equal(t, "GGrr", p.CurrentState("tl_0"))
	assert.False(t, s.ShouldAct())

	// 5个tick后轮到下一次决策
	for i := 0; i < 5; i++ {
		s.Advance()
		ctx.clock.Tick()
	}
	assert.True(t, s.ShouldAct())
}

func TestRequestKeepCurrentPhase(t *testing.T) {
	ctx, p, s := newTestSignal(t, testControl())

	// 驻留足够久之后请求保持当前相位，同样走拒绝分支
	for i := 0; i < 20; i++ {
		s.Advance()
		ctx.clock.Tick()
	}
	assert.Nil(t, s.Request(0))
	assert.Equal(t, int32(0), s.GreenPhase())
	assert.False(t, s.IsYellow())
	assert.Equal(t, "GGrr", p.CurrentState("tl_0"))
}

func TestRequestYellowTransition(t *testing.T) {
	ctx, p, s := newTestSignal(t, testControl())

	// 驻留14个tick后切换合法
	for i := 0; i < 14; i++ {
		s.Advance()
		ctx.clock.Tick()
	}
	assert.Nil(t, s.Request(1))
	assert.True(t, s.IsYellow())
	assert.Equal(t, int32(1), s.GreenPhase())
	assert.Equal(t, "yyrr", p.CurrentState("tl_0"))
	assert.Equal(t, int32(0), s.TimeSinceLastPhaseChange())

	// 黄灯恰好持续yellow_time=4个tick
	for i := 0; i < 3; i++ {
		s.Advance()
		ctx.clock.Tick()
		assert.True(t, s.IsYellow())
		assert.Equal(t, "yyrr", p.CurrentState("tl_0"))
	}
	s.Advance()
	ctx.clock.Tick()
	assert.False(t, s.IsYellow())
	assert.Equal(t, "rrGG", p.CurrentState("tl_0"))
}

func TestRequestOutOfRange(t *testing.T) {
	_, _, s := newTestSignal(t, testControl())

	assert.NotNil(t, s.Request(-1))
	assert.NotNil(t, s.Request(2))
}

func TestObservationSizeInvariant(t *testing.T) {
	ctx, p, s := newTestSignal(t, testControl())

	// one-hot(2) + min_green标志(1) + 密度(4) + 排队(4)
	assert.Equal(t, 11, s.ObservationSize())
	obs := s.ComputeObservation()
	assert.Equal(t, 11, len(obs))
	// 初始：相位0，驻留不足
	assert.Equal(t, 1.0, obs[0])
	assert.Equal(t, 0.0, obs[1])
	assert.Equal(t, 0.0, obs[2])

	// 驻留足够久并切换相位后长度不变
	for i := 0; i < 14; i++ {
		s.Advance()
		ctx.clock.Tick()
	}
	obs = s.ComputeObservation()
	assert.Equal(t, 11, len(obs))
	assert.Equal(t, 1.0, obs[2]) // min_green标志

	assert.Nil(t, s.Request(1))
	assert.Equal(t, "yyrr", p.CurrentState("tl_0"))
	obs = s.ComputeObservation()
	assert.Equal(t, 11, len(obs))
	assert.Equal(t, 0.0, obs[0])
	assert.Equal(t, 1.0, obs[1])
}

func TestManagerLifecycle(t *testing.T) {
	ctx, p := newTestIntersection(testControl())
	m := signal.NewManager(ctx)
	ctx.signalManager = m
	m.Init(p, nil, nil)

	assert.Equal(t, 1, len(m.Signals()))
	s := m.Get("tl_0")
	assert.Equal(t, "tl_0", s.ID())
	_, err := m.GetOrError("tl_1")
	assert.NotNil(t, err)

	// 推进到可以切换后执行一次切换，Update驱动黄灯过渡完成
	for i := 0; i < 14; i++ {
		m.Update()
		ctx.clock.Tick()
	}
	assert.Nil(t, s.Request(1))
	assert.True(t, s.IsYellow())
	for i := 0; i < 4; i++ {
		m.Update()
		ctx.clock.Tick()
	}
	assert.False(t, s.IsYellow())
	assert.Equal(t, "rrGG", p.CurrentState("tl_0"))

	// 回合边界重置：恢复初始相位并重新应用第一个相位的状态
	m.Reset()
	assert.Equal(t, int32(0), s.GreenPhase())
	assert.False(t, s.IsYellow())
	assert.Equal(t, "GGrr", p.CurrentState("tl_0"))
}

func TestManagerTimingOverride(t *testing.T) {
	ctx, p := newTestIntersection(testControl())
	m := signal.NewManager(ctx)
	ctx.signalManager = m
	// 该路口的决策间隔被覆盖为7，其余字段继承全局配置
	m.Init(p, nil, map[string]config.SignalControl{
		"tl_0": {DeltaTime: 7},
	})

	s := m.Get("tl_0")
	assert.True(t, s.ShouldAct())
	assert.Nil(t, s.Request(0))
	for i := 0; i < 6; i++ {
		m.Update()
		ctx.clock.Tick()
		assert.False(t, s.ShouldAct())
	}
	m.Update()
	ctx.clock.Tick()
	assert.True(t, s.ShouldAct())
}
