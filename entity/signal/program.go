package signal

import (
	"fmt"

	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
)

// 绿灯相位在编译后程序中的统一持续时间（tick）
// 实际的相位驻留由控制器的delta_time/min_green决定，该值只是程序中的占位时长
const defaultGreenDuration = 60

// Program 编译后的相位程序
// 功能：存储从原生相位编译得到的完整程序，包括绿灯相位、合成黄灯相位
// 与(当前绿灯,目标绿灯)到黄灯相位的映射
// 说明：每个路口初始化时编译一次并原子化安装到提供者，之后不再修改
type Program struct {
	Greens      []entity.Phase     // 过滤后的绿灯相位列表
	All         []entity.Phase     // 完整相位列表（绿灯+合成黄灯）
	YellowIndex map[[2]int32]int32 // (当前绿灯索引,目标绿灯索引)->All中黄灯相位索引
}

// BuildProgram 编译相位程序
// 功能：从原生相位列表合成完整的相位程序
// 参数：native-提供者给出的原生相位列表，yellowTime-黄灯持续tick数
// 返回：编译后的程序，原生相位不合法时返回error
// 算法说明：
// 1. 校验：状态串非空、长度一致、字符合法
// 2. 绿灯过滤：不含'y'且不全为'r'/'s'的相位为绿灯相位
// 3. 黄灯合成：对每个有序对(p1,p2)，p1为绿且p2为红/停的位置写'y'，
//    其余位置复制p1的字符，持续时间为yellowTime
// 说明：两个绿灯相位在所有相关位上相同时，合成的"黄灯"退化为绿灯状态的
// 拷贝（没有实际黄灯），视为合法输入
func BuildProgram(native []entity.Phase, yellowTime int32) (*Program, error) {
	if len(native) == 0 {
		return nil, fmt.Errorf("empty native phase list")
	}
	width := len(native[0].State)
	if width == 0 {
		return nil, fmt.Errorf("empty phase state string")
	}
	for _, p := range native {
		if len(p.State) != width {
			return nil, fmt.Errorf("phase state length %d does not match %d", len(p.State), width)
		}
		for i := 0; i < len(p.State); i++ {
			if !entity.IsValidLightChar(p.State[i]) {
				return nil, fmt.Errorf("invalid light char %q in phase state %q", p.State[i], p.State)
			}
		}
	}

	program := &Program{
		Greens:      make([]entity.Phase, 0, len(native)),
		YellowIndex: make(map[[2]int32]int32),
	}
	for _, p := range native {
		if isGreenState(p.State) {
			program.Greens = append(program.Greens, entity.Phase{
				Duration: defaultGreenDuration,
				State:    p.State,
			})
		}
	}
	if len(program.Greens) == 0 {
		return nil, fmt.Errorf("no green phase in native program")
	}

	program.All = append(program.All, program.Greens...)
	for i, p1 := range program.Greens {
		for j, p2 := range program.Greens {
			if i == j {
				continue
			}
			yellowState := make([]byte, width)
			for s := 0; s < width; s++ {
				if entity.IsGreenChar(p1.State[s]) && entity.IsRedChar(p2.State[s]) {
					yellowState[s] = entity.LightYellow
				} else {
					yellowState[s] = p1.State[s]
				}
			}
			program.YellowIndex[[2]int32{int32(i), int32(j)}] = int32(len(program.All))
			program.All = append(program.All, entity.Phase{
				Duration: yellowTime,
				State:    string(yellowState),
			})
		}
	}
	return program, nil
}

// isGreenState 判断状态串是否为绿灯相位
// 说明：不含黄灯字符且至少有一个非红/停字符
func isGreenState(state string) bool {
	redCount := 0
	for i := 0; i < len(state); i++ {
		if state[i] == entity.LightYellow {
			return false
		}
		if entity.IsRedChar(state[i]) {
			redCount++
		}
	}
	return redCount != len(state)
}
