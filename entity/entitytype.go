package entity

// 信号状态串字符定义（与SUMO红黄绿状态串一致，每个受控连接一个字符）
const (
	LightGreenPriority = 'G' // 绿灯（有优先权）
	LightGreen         = 'g' // 绿灯（无优先权）
	LightYellow        = 'y' // 黄灯
	LightRed           = 'r' // 红灯
	LightStop          = 's' // 停止（等同红灯处理）
)

// Phase 信号相位
// 功能：表示信号程序中的一个相位，由持续时间与状态串组成
// 说明：状态串长度等于受控连接数，构建完成后不再修改
type Phase struct {
	Duration int32  // 相位持续时间（tick）
	State    string // 状态串
}

// IsGreenChar 判断状态字符是否为绿灯
func IsGreenChar(c byte) bool {
	return c == LightGreenPriority || c == LightGreen
}

// IsRedChar 判断状态字符是否为红灯或停止
func IsRedChar(c byte) bool {
	return c == LightRed || c == LightStop
}

// IsValidLightChar 判断状态字符是否合法
func IsValidLightChar(c byte) bool {
	return IsGreenChar(c) || IsRedChar(c) || c == LightYellow
}
