package job

import (
	"errors"
	"io/fs"
	"os"

	"github.com/mhsanaei/blogpanel/logger"
)

// ClearLogsJob moves the current log file content to the previous log file
// and truncates it. The previous content of the previous log is dropped.
type ClearLogsJob struct {
	logPath  string
	prevPath string
}

func NewClearLogsJob() *ClearLogsJob {
	return &ClearLogsJob{logPath: logger.LogPath(), prevPath: logger.PrevLogPath()}
}

// Here Run is an interface method of the Job interface
func (j *ClearLogsJob) Run() {
	if err := rotate(j.logPath, j.prevPath); err != nil {
		logger.Warning("clear logs job err:", err)
	}
}

func rotate(logPath, prevPath string) error {
	content, err := os.ReadFile(logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(prevPath, content, 0o640); err != nil {
		return err
	}
	return os.Truncate(logPath, 0)
}
