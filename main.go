package main

import (
	"encoding/base64"
	"flag"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/tsinghua-fib-lab/rlsignal-oss/entity"
	"github.com/tsinghua-fib-lab/rlsignal-oss/provider/remote"
	"github.com/tsinghua-fib-lab/rlsignal-oss/provider/scripted"
	"github.com/tsinghua-fib-lab/rlsignal-oss/task"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

var (
	// 控制任务名，主要用于日志与输出标识
	job = flag.String("job", "job0", "the name of the whole control task")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 数据加载input的缓存地址，设置为空则禁用缓存功能
	// 缓存：将检测器挂接数据根据数据库db和col序列化到本地文件系统，并总是先试图从文件系统中加载
	cacheDir = flag.String("cache", "data/", "input cache dir path (empty means disable cache)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", task.SelfName)
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	// 选择交通状态提供者：配置了中间件地址则连接SUMO中间件，
	// 否则使用内置演示场景
	var provider entity.ITrafficProvider
	if c.Input.Middleware != "" {
		p := remote.New(c.Input.Middleware)
		defer p.Close()
		provider = p
	} else {
		log.Info("no middleware configured, running built-in demo scenario")
		provider = scripted.NewDemo(c.Control.Seed)
	}

	t, err := task.NewContext(*job, *cacheDir, c, provider)
	if err != nil {
		log.Panicf("failed to create task context: %v", err)
	}
	t.Run()
}
