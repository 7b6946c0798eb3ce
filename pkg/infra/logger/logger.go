package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Entries go to stdout as JSON, which the
// Lambda runtime forwards to CloudWatch; when file is set they are also
// appended to it through an async writer. The returned func flushes and closes
// that file and must be called before exit.
func NewLogger(level, file string) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if file == "" {
		return logger, func() error { return nil }, nil
	}

	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, nil, err
	}
	asyncWriter, err := NewAsyncFileWriter(file, 32*1024)
	if err != nil {
		return nil, nil, err
	}
	logger.AddHook(NewFileHook(asyncWriter))

	closeFn := func() error {
		if dropped := asyncWriter.Dropped(); dropped > 0 {
			logger.WithField("dropped", dropped).Warn("log file queue overflowed")
		}
		return asyncWriter.Close()
	}
	return logger, closeFn, nil
}
