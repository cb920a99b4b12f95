package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：支持MongoDB数据库和YAML文件两种数据源，支持缓存机制
type InputPath struct {
	DB        string `yaml:"db"`                   // 数据库名
	Col       string `yaml:"col"`                  // 集合名
	Cache     string `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.yml
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
	File      string `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// GetCachePath 获取缓存文件路径
// 功能：返回缓存文件的完整路径
// 说明：如果指定了缓存路径，直接返回；否则使用默认命名规则{数据库名}.{集合名}.yml
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.DB + "." + p.Col + ".yml"
}

// Input 指定所有输入数据的配置项
// 功能：定义系统的所有输入数据配置
// 说明：包含SUMO中间件地址和检测器等静态配置的数据来源
type Input struct {
	URI        string     `yaml:"uri,omitempty"`        // MongoDB连接字符串
	Middleware string     `yaml:"middleware,omitempty"` // SUMO中间件websocket地址，为空则使用脚本化内存提供者
	Detectors  *InputPath `yaml:"detectors,omitempty"`  // 路口->检测器映射
	Signals    *InputPath `yaml:"signals,omitempty"`    // 路口时序参数覆盖
}

// ControlStep 指定模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// SignalControl 信号灯控制配置
// 功能：定义每个信号灯控制器的时序参数与策略选择
// 说明：所有时序参数以tick计，yellow_time+min_green共同构成相位切换前的
// 最小驻留时间；max_green仅存储不参与切换判定（与原有控制行为保持一致）
type SignalControl struct {
	DeltaTime   int32  `yaml:"delta_time"`            // 相邻两次控制决策之间的tick数
	YellowTime  int32  `yaml:"yellow_time"`           // 黄灯持续tick数
	MinGreen    int32  `yaml:"min_green"`             // 绿灯最短持续tick数
	MaxGreen    int32  `yaml:"max_green"`             // 绿灯最长持续tick数
	Reward      string `yaml:"reward,omitempty"`      // 奖励策略名
	Observation string `yaml:"observation,omitempty"` // 观测策略名
}

// Control 模拟器控制配置
type Control struct {
	Step         ControlStep   `yaml:"step"`
	Signal       SignalControl `yaml:"signal"`
	ActionSource string        `yaml:"action_source,omitempty"` // 动作来源（fixed|rand）
	Seed         uint64        `yaml:"seed,omitempty"`          // 随机动作源种子
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 模拟过程控制
}
