package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity/signal"
)

func TestBuildProgramYellowSynthesis(t *testing.T) {
	program, err := signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "GGrr"},
		{Duration: 30, State: "rrGG"},
	}, 4)
	assert.Nil(t, err)

	// 绿灯相位统一占位时长，黄灯相位为yellow_time
	assert.Equal(t, 2, len(program.Greens))
	assert.Equal(t, int32(60), program.Greens[0].Duration)
	assert.Equal(t, int32(60), program.Greens[1].Duration)
	assert.Equal(t, 4, len(program.All))

	// 有序对(0,1)：绿转红的位置写'y'，其余复制前相位
	y01 := program.All[program.YellowIndex[[2]int32{0, 1}]]
	assert.Equal(t, "yyrr", y01.State)
	assert.Equal(t, int32(4), y01.Duration)
	y10 := program.All[program.YellowIndex[[2]int32{1, 0}]]
	assert.Equal(t, "rryy", y10.State)

	// 每个有序对都有对应的黄灯相位
	assert.Equal(t, 2, len(program.YellowIndex))
}

func TestBuildProgramGreenFilter(t *testing.T) {
	// 含'y'的相位与全红/停相位都不是绿灯相位
	program, err := signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "GGrr"},
		{Duration: 4, State: "yyrr"},
		{Duration: 10, State: "rrrr"},
		{Duration: 10, State: "rsrs"},
		{Duration: 30, State: "rrGG"},
	}, 3)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(program.Greens))
	assert.Equal(t, "GGrr", program.Greens[0].State)
	assert.Equal(t, "rrGG", program.Greens[1].State)
}

func TestBuildProgramLowPriorityGreen(t *testing.T) {
	// 'g'与'G'都是绿灯字符，'g'转红同样要出黄灯
	program, err := signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "gGrr"},
		{Duration: 30, State: "rrgG"},
	}, 2)
	assert.Nil(t, err)
	y01 := program.All[program.YellowIndex[[2]int32{0, 1}]]
	assert.Equal(t, "yyrr", y01.State)
}

func TestBuildProgramDegenerateYellow(t *testing.T) {
	// 两个绿灯相位在所有位上相同：合成的"黄灯"退化为绿灯状态的拷贝，合法
	program, err := signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "GGGG"},
		{Duration: 30, State: "GGGG"},
	}, 2)
	assert.Nil(t, err)
	y01 := program.All[program.YellowIndex[[2]int32{0, 1}]]
	assert.Equal(t, "GGGG", y01.State)
}

func TestBuildProgramErrors(t *testing.T) {
	// 空相位列表
	_, err := signal.BuildProgram(nil, 2)
	assert.NotNil(t, err)

	// 状态串长度不一致
	_, err = signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "GGrr"},
		{Duration: 30, State: "rrG"},
	}, 2)
	assert.NotNil(t, err)

	// 非法字符
	_, err = signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "GGxr"},
	}, 2)
	assert.NotNil(t, err)

	// 没有绿灯相位
	_, err = signal.BuildProgram([]entity.Phase{
		{Duration: 30, State: "rrrr"},
		{Duration: 30, State: "ssss"},
	}, 2)
	assert.NotNil(t, err)
}
