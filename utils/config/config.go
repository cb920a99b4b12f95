package config

// RuntimeConfig 运行时配置
// 功能：存储运行时的配置信息
// 说明：将YAML配置转换为运行时可用的配置对象，补全缺省值
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化全局变量
// 功能：创建运行时配置对象，补全信号灯控制的缺省时序参数
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 信号时序缺省值：delta_time=5、yellow_time=2、min_green=5、max_green=50
// 2. 策略缺省值：reward=diff-waiting-time，observation=default
// 3. 动作来源缺省值：fixed
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	rc.All = config
	rc.C = config.Control
	if rc.C.Signal.DeltaTime == 0 {
		rc.C.Signal.DeltaTime = 5
	}
	if rc.C.Signal.YellowTime == 0 {
		rc.C.Signal.YellowTime = 2
	}
	if rc.C.Signal.MinGreen == 0 {
		rc.C.Signal.MinGreen = 5
	}
	if rc.C.Signal.MaxGreen == 0 {
		rc.C.Signal.MaxGreen = 50
	}
	if rc.C.Signal.Reward == "" {
		rc.C.Signal.Reward = "diff-waiting-time"
	}
	if rc.C.Signal.Observation == "" {
		rc.C.Signal.Observation = "default"
	}
	if rc.C.ActionSource == "" {
		rc.C.ActionSource = "fixed"
	}

	return rc
}
