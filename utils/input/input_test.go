package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/input"
)

func TestInitWithoutSources(t *testing.T) {
	res := input.Init(config.Config{}, "")
	assert.Equal(t, 0, len(res.Detectors))
	assert.Equal(t, 0, len(res.Timings))
}

func TestInitFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detectors.yml")
	data := `
- signal_id: tl_0
  detector_id: det_a
- signal_id: tl_0
  detector_id: det_b
- signal_id: tl_1
  detector_id: det_c
`
	assert.Nil(t, os.WriteFile(path, []byte(data), 0o644))

	c := config.Config{}
	c.Input.Detectors = &config.InputPath{File: path}
	res := input.Init(c, "")

	assert.Equal(t, 2, len(res.Detectors))
	assert.Equal(t, []string{"det_a", "det_b"}, res.Detectors["tl_0"])
	assert.Equal(t, []string{"det_c"}, res.Detectors["tl_1"])
}

func TestInitTimingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals.yml")
	data := `
- signal_id: tl_0
  delta_time: 10
  min_green: 12
- signal_id: tl_1
  reward: pressure
`
	assert.Nil(t, os.WriteFile(path, []byte(data), 0o644))

	c := config.Config{}
	c.Input.Signals = &config.InputPath{File: path}
	res := input.Init(c, "")

	assert.Equal(t, 2, len(res.Timings))
	assert.Equal(t, int32(10), res.Timings["tl_0"].DeltaTime)
	assert.Equal(t, int32(12), res.Timings["tl_0"].MinGreen)
	// 未给出的字段保持零值，由管理器合并时继承全局配置
	assert.Equal(t, int32(0), res.Timings["tl_0"].YellowTime)
	assert.Equal(t, "pressure", res.Timings["tl_1"].Reward)
}

func TestInitFromCache(t *testing.T) {
	// 缓存文件存在时不访问数据库
	dir := t.TempDir()
	data := `
- signal_id: tl_0
  detector_id: det_a
`
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "city.detectors.yml"), []byte(data), 0o644))

	c := config.Config{}
	c.Input.Detectors = &config.InputPath{DB: "city", Col: "detectors", OnlyCache: true}
	res := input.Init(c, dir)

	assert.Equal(t, []string{"det_a"}, res.Detectors["tl_0"])
}
