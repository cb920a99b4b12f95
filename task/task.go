package task

import (
	"fmt"

	"github.com/tsinghua-fib-lab/rlsignal-oss/clock"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/entity/signal"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/input"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/randengine"
)

// Context 信号控制任务上下文
// 功能：包含一次控制任务的所有变量和状态，替代全局变量
// 说明：管理时钟、交通状态提供者、信号灯管理器与动作来源
type Context struct {

	// 任务名
	job string
	// 缓存文件夹
	cacheDir string

	// 时钟
	clock *clock.Clock

	// 交通状态提供者
	provider entity.ITrafficProvider
	// 信号灯管理器
	signalManager entity.ISignalManager

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 动作来源
	actionFn ActionFn
	// 随机动作源的随机数引擎
	generator *randengine.Engine

	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建新的控制任务上下文
// 功能：初始化控制系统的所有组件和配置
// 参数：job-任务名称，cacheDir-缓存目录，c-配置对象，provider-交通状态提供者
// 返回：初始化完成的Context实例，配置错误时返回error
// 算法说明：
// 1. 创建时钟并加载输入数据（检测器挂接关系）
// 2. 构建运行时配置（补全缺省值）
// 3. 创建信号灯管理器并初始化所有信号灯控制器
// 4. 按配置解析动作来源（fixed|rand），自定义策略通过SetActionFn注入
func NewContext(
	job string,
	cacheDir string,
	c config.Config,
	provider entity.ITrafficProvider,
) (*Context, error) {
	ctx := &Context{
		job:      job,
		cacheDir: cacheDir,
		provider: provider,
	}
	ctx.clock = clock.New(c.Control.Step)

	// 下载所有控制器启动所需的数据
	ctx.initRes = input.Init(c, ctx.cacheDir)
	// 无外部检测器配置时退回提供者场景自带的挂接关系
	if len(ctx.initRes.Detectors) == 0 {
		if dp, ok := provider.(interface{ DefaultDetectors() map[string][]string }); ok {
			ctx.initRes.Detectors = dp.DefaultDetectors()
		}
	}

	ctx.runtimeConfig = config.NewRuntimeConfig(c)

	ctx.signalManager = signal.NewManager(ctx)
	ctx.signalManager.Init(provider, ctx.initRes.Detectors, ctx.initRes.Timings)

	switch ctx.runtimeConfig.C.ActionSource {
	case "fixed":
		ctx.actionFn = FixedAction
	case "rand":
		ctx.generator = randengine.New(ctx.runtimeConfig.C.Seed)
		ctx.actionFn = ctx.randAction
	default:
		return nil, fmt.Errorf("unknown action source %s", ctx.runtimeConfig.C.ActionSource)
	}
	return ctx, nil
}

func (ctx *Context) GetInput() *input.Input {
	return ctx.initRes
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Provider() entity.ITrafficProvider {
	return ctx.provider
}

func (ctx *Context) SignalManager() entity.ISignalManager {
	return ctx.signalManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// SetActionFn 注入自定义动作来源
// 说明：覆盖配置中的action_source，须在Run之前调用
func (ctx *Context) SetActionFn(fn ActionFn) {
	ctx.actionFn = fn
}
