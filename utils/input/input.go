// 输入数据加载，支持YAML文件与MongoDB两种来源，带文件缓存
package input

import (
	"context"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v2"

	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

// Input 输入数据
// 功能：存储信号控制所需的静态输入数据
// 说明：Detectors是路口ID到检测器ID列表的映射；Timings是路口ID到时序
// 参数覆盖的映射（零值字段继承全局配置）；未配置的来源为空映射
type Input struct {
	Detectors map[string][]string
	Timings   map[string]config.SignalControl
}

// detectorDoc 一条检测器挂接记录
type detectorDoc struct {
	SignalID   string `bson:"signal_id" yaml:"signal_id"`
	DetectorID string `bson:"detector_id" yaml:"detector_id"`
}

// signalDoc 一条路口时序参数覆盖记录
// 说明：数值0与空串表示"继承全局配置"，不表示字面零值
type signalDoc struct {
	SignalID    string `bson:"signal_id" yaml:"signal_id"`
	DeltaTime   int32  `bson:"delta_time,omitempty" yaml:"delta_time,omitempty"`
	YellowTime  int32  `bson:"yellow_time,omitempty" yaml:"yellow_time,omitempty"`
	MinGreen    int32  `bson:"min_green,omitempty" yaml:"min_green,omitempty"`
	MaxGreen    int32  `bson:"max_green,omitempty" yaml:"max_green,omitempty"`
	Reward      string `bson:"reward,omitempty" yaml:"reward,omitempty"`
	Observation string `bson:"observation,omitempty" yaml:"observation,omitempty"`
}

// Init 加载输入数据
// 功能：根据配置加载检测器挂接关系与路口时序参数覆盖
// 参数：c-配置对象，cacheDir-缓存目录（为空则不使用缓存）
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 缓存检查：验证缓存目录的有效性
// 2. 按来源加载：配置了file时直接读YAML文件；否则先查缓存文件，
//    未命中时连接MongoDB下载并写入缓存
// 3. only_cache且缓存缺失是致命错误
func Init(c config.Config, cacheDir string) *Input {
	res := &Input{
		Detectors: make(map[string][]string),
		Timings:   make(map[string]config.SignalControl),
	}
	if !preCheckCache(cacheDir) {
		cacheDir = ""
	}

	if c.Input.Detectors != nil {
		docs := mustLoad[detectorDoc](c.Input.URI, *c.Input.Detectors, cacheDir)
		for _, d := range docs {
			res.Detectors[d.SignalID] = append(res.Detectors[d.SignalID], d.DetectorID)
		}
		log.Infof("loaded %d detector bindings for %d signals", len(docs), len(res.Detectors))
	}
	if c.Input.Signals != nil {
		docs := mustLoad[signalDoc](c.Input.URI, *c.Input.Signals, cacheDir)
		for _, d := range docs {
			res.Timings[d.SignalID] = config.SignalControl{
				DeltaTime:   d.DeltaTime,
				YellowTime:  d.YellowTime,
				MinGreen:    d.MinGreen,
				MaxGreen:    d.MaxGreen,
				Reward:      d.Reward,
				Observation: d.Observation,
			}
		}
		log.Infof("loaded timing overrides for %d signals", len(res.Timings))
	}
	return res
}

// mustLoad 从配置的来源加载一组记录
// 功能：按 文件 > 缓存 > 数据库 的顺序取数，数据库结果写回缓存
func mustLoad[T any](uri string, path config.InputPath, cacheDir string) []T {
	if path.File != "" {
		return mustLoadFile[T](path.File)
	}
	cachePath := ""
	if cacheDir != "" {
		cachePath = filepath.Join(cacheDir, path.GetCachePath())
		if _, err := os.Stat(cachePath); err == nil {
			log.Infof("load %s.%s from cache %s", path.GetDb(), path.GetColl(), cachePath)
			return mustLoadFile[T](cachePath)
		}
	}
	if path.OnlyCache {
		log.Panicf("only_cache is set for %s.%s but cache is missing", path.GetDb(), path.GetColl())
	}
	docs := mustDownload[T](uri, path)
	if cachePath != "" {
		writeCache(cachePath, docs)
	}
	return docs
}

// mustLoadFile 从YAML文件加载记录
func mustLoadFile[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("failed to read input from %s: %v", path, err)
	}
	var docs []T
	if err := yaml.Unmarshal(data, &docs); err != nil {
		log.Panicf("failed to parse input from %s: %v", path, err)
	}
	return docs
}

// mustDownload 从MongoDB下载记录
func mustDownload[T any](uri string, path config.InputPath) []T {
	if uri == "" {
		log.Panicf("input configured as %s.%s but no mongo uri given", path.GetDb(), path.GetColl())
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Panicf("failed to connect to mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	log.Infof("start fetching from %s.%s", path.GetDb(), path.GetColl())
	coll := client.Database(path.GetDb()).Collection(path.GetColl())
	cursor, err := coll.Find(context.Background(), map[string]any{})
	if err != nil {
		log.Panicf("failed to query %s.%s: %v", path.GetDb(), path.GetColl(), err)
	}
	var docs []T
	if err := cursor.All(context.Background(), &docs); err != nil {
		log.Panicf("failed to decode %s.%s: %v", path.GetDb(), path.GetColl(), err)
	}
	log.Infof("finish fetching from %s.%s", path.GetDb(), path.GetColl())
	return docs
}

// writeCache 将下载结果写入YAML缓存文件
func writeCache[T any](path string, docs []T) {
	data, err := yaml.Marshal(docs)
	if err != nil {
		log.Panicf("failed to encode cache: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warnf("failed to write cache %s: %v", path, err)
	}
}

// preCheckCache 检查缓存目录是否可用
// 说明：目录不存在时尝试创建，失败则禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		return false
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.Warnf("failed to create cache dir %s, cache disabled: %v", cacheDir, err)
		return false
	}
	return true
}
