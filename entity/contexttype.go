package entity

import (
	"github.com/tsinghua-fib-lab/rlsignal-oss/clock"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	SignalManager() ISignalManager
	Provider() ITrafficProvider
	RuntimeConfig() *config.RuntimeConfig
}
