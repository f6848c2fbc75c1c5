package logcfg

import (
	"fmt"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"path"
	"runtime"
)

const defaultLogFileName = "hifibot.log"

// RunLoggerConfig производит настройку logrus устанавливая уровень логирования,
// формат логируемой информации и настройки записи логов в файл.
// Пустое имя файла заменяется на hifibot.log.
func RunLoggerConfig(envLogsLevel, envLogFileName string) error {
	logLevel, err := logrus.ParseLevel(envLogsLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", envLogsLevel, err)
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	//Настраиваем формат логируемой информации
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		CallerPrettyfier: callerPrettyfier,
	})

	if envLogFileName == "" {
		envLogFileName = defaultLogFileName
	}
	// Настраиваем запись логов в файл
	logrus.SetOutput(io.MultiWriter(os.Stdout, newRotatingFile(envLogFileName)))
	return nil
}

// callerPrettyfier сокращает путь вызывающего до file.line.function
func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	return "", fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
}

func newRotatingFile(fileName string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     30,
	}
}
