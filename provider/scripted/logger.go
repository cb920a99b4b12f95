package scripted

import "github.com/sirupsen/logrus"

// log 脚本化提供者模块的日志记录器
var log = logrus.WithField("module", "scripted")
