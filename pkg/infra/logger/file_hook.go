package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

type FileHook struct {
	out io.Writer
}

func NewFileHook(out io.Writer) *FileHook {
	return &FileHook{out: out}
}

func (h *FileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.out.Write(line)
	return err
}

func (h *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
