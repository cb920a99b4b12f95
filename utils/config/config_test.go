package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
	"gopkg.in/yaml.v2"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	rc := config.NewRuntimeConfig(config.Config{})

	assert.Equal(t, int32(5), rc.C.Signal.DeltaTime)
	assert.Equal(t, int32(2), rc.C.Signal.YellowTime)
	assert.Equal(t, int32(5), rc.C.Signal.MinGreen)
	assert.Equal(t, int32(50), rc.C.Signal.MaxGreen)
	assert.Equal(t, "diff-waiting-time", rc.C.Signal.Reward)
	assert.Equal(t, "default", rc.C.Signal.Observation)
	assert.Equal(t, "fixed", rc.C.ActionSource)
}

func TestRuntimeConfigKeepsExplicitValues(t *testing.T) {
	c := config.Config{}
	c.Control.Signal = config.SignalControl{
		DeltaTime:  10,
		YellowTime: 4,
		MinGreen:   12,
		MaxGreen:   60,
		Reward:     "pressure",
	}
	c.Control.ActionSource = "rand"
	rc := config.NewRuntimeConfig(c)

	assert.Equal(t, int32(10), rc.C.Signal.DeltaTime)
	assert.Equal(t, int32(4), rc.C.Signal.YellowTime)
	assert.Equal(t, "pressure", rc.C.Signal.Reward)
	assert.Equal(t, "rand", rc.C.ActionSource)
	// 未显式给出的仍取缺省值
	assert.Equal(t, "default", rc.C.Signal.Observation)
}

func TestConfigYAML(t *testing.T) {
	data := `
input:
  middleware: ws://127.0.0.1:5555
  detectors:
    db: city
    col: detectors
control:
  step:
    start: 0
    total: 3600
    interval: 1
  signal:
    delta_time: 5
    yellow_time: 2
    min_green: 10
    max_green: 50
    reward: diff-waiting-time
  action_source: rand
  seed: 42
`
	var c config.Config
	assert.Nil(t, yaml.UnmarshalStrict([]byte(data), &c))
	assert.Equal(t, "ws://127.0.0.1:5555", c.Input.Middleware)
	assert.Equal(t, "city", c.Input.Detectors.GetDb())
	assert.Equal(t, "city.detectors.yml", c.Input.Detectors.GetCachePath())
	assert.Equal(t, int32(3600), c.Control.Step.Total)
	assert.Equal(t, int32(10), c.Control.Signal.MinGreen)
	assert.Equal(t, uint64(42), c.Control.Seed)
}
