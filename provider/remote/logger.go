package remote

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "remote")
