package util

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const LOG_BUFFER_SIZE = 1000

var (
	ErrLogNotInitialized      = errors.New("log object is not initialized yet")
	LOG_FOLDER_NAME_WITH_PATH = ".." + string(os.PathSeparator) + "log"
	globalLogLevel            = LOG_LEVEL_INFO
)

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// VitalsLogger writes leveled messages to a log file from a background
// goroutine. With console enabled every line is also written to stderr.
type VitalsLogger struct {
	logBuffer         chan LeveledLogger
	handle            *os.File
	wg                *sync.WaitGroup
	mu                sync.RWMutex
	loggerInitialized bool
	zapLogger         *zap.Logger
}

type LeveledLogger struct {
	level  int
	logMsg string
}

func (m *VitalsLogger) Init(logFileName string, rewrite bool, console bool) error {

	var (
		err             error
		fileWithRelPath string
	)
	m.wg = new(sync.WaitGroup)
	m.logBuffer = make(chan LeveledLogger, LOG_BUFFER_SIZE)

	m.handle = nil
	fileWithRelPath = LOG_FOLDER_NAME_WITH_PATH + string(os.PathSeparator) + logFileName

	flags := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if rewrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	m.handle, err = os.OpenFile(fileWithRelPath, flags, 0666)
	if err != nil {
		return err
	}

	m.zapLoggerInit(console)

	m.wg.Add(1)
	go m.logWriter()

	m.mu.Lock()
	m.loggerInitialized = true
	m.mu.Unlock()
	return nil
}

func (m *VitalsLogger) zapLoggerInit(console bool) {

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	config.EncodeLevel = zapcore.CapitalLevelEncoder //To Print level in Uppercase.
	fileEncoder := zapcore.NewConsoleEncoder(config) //To Print Lines in non json format.

	cores := []zapcore.Core{
		zapcore.NewCore(fileEncoder, zapcore.AddSync(m.handle), GlobalLogLevelSetter()),
	}
	if console {
		consoleConfig := config
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stderr), GlobalLogLevelSetter()))
	}

	m.zapLogger = zap.New(zapcore.NewTee(cores...))
}

// Zap returns the structured logger behind m, or a no-op logger before Init.
func (m *VitalsLogger) Zap() *zap.Logger {
	if m == nil || m.zapLogger == nil {
		return zap.NewNop()
	}
	return m.zapLogger
}

func GlobalLogLevelSetter() zapcore.Level {
	switch globalLogLevel {
	case LOG_LEVEL_ERROR:
		return zapcore.ErrorLevel
	case LOG_LEVEL_WARN:
		return zapcore.WarnLevel
	case LOG_LEVEL_DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

func (m *VitalsLogger) logWriter() {
	for logdata := range m.logBuffer {
		switch logdata.level {
		case LOG_LEVEL_ERROR:
			m.zapLogger.Error(logdata.logMsg)
		case LOG_LEVEL_WARN:
			m.zapLogger.Warn(logdata.logMsg)
		case LOG_LEVEL_INFO:
			m.zapLogger.Info(logdata.logMsg)
		case LOG_LEVEL_DEBUG:
			m.zapLogger.Debug(logdata.logMsg)
		}
	}
	m.zapLogger.Sync()
	m.wg.Done()
}

// LogEvent queues a message. A leading LOG_LEVEL_* argument selects the
// level; otherwise the message is logged at info.
func (m *VitalsLogger) LogEvent(v ...interface{}) error {
	var msg string
	var level int
	var ok bool

	if len(v) == 1 {
		level = LOG_LEVEL_INFO
		msg = fmt.Sprint(v[0])

	} else if len(v) > 1 {
		level, ok = v[0].(int)
		if ok && level >= LOG_LEVEL_ERROR && level <= LOG_LEVEL_DEBUG {
			msg = fmt.Sprintf("%v", v[1:])
		} else {
			level = LOG_LEVEL_INFO
			msg = fmt.Sprintf("%v", v)
		}
		msg = msg[1 : len(msg)-1]
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loggerInitialized {
		return ErrLogNotInitialized
	}
	m.logBuffer <- LeveledLogger{level, msg}
	return nil
}

func (m *VitalsLogger) DeInit() {

	m.mu.Lock()
	if !m.loggerInitialized {
		m.mu.Unlock()
		return
	}
	m.loggerInitialized = false
	close(m.logBuffer)
	m.mu.Unlock()

	m.wg.Wait()
	m.handle.Close()
}

func SetCommonLoggerAttributes(GlobalLogLevel int) {
	globalLogLevel = GlobalLogLevel
}

// ParseLogLevel maps error|warn|info|debug to a LOG_LEVEL_* value.
func ParseLogLevel(level string) int {
	switch strings.ToLower(level) {
	case "error":
		return LOG_LEVEL_ERROR
	case "warn", "warning":
		return LOG_LEVEL_WARN
	case "debug":
		return LOG_LEVEL_DEBUG
	default:
		return LOG_LEVEL_INFO
	}
}

func SetLoggerPath(logPath string) {
	LOG_FOLDER_NAME_WITH_PATH = logPath
}

func CheckAndCreateLogFolder(FolderNameWithPath string) {
	_, err := os.Stat(FolderNameWithPath)

	if os.IsNotExist(err) {
		err := os.MkdirAll(FolderNameWithPath, 0755)
		if err != nil {
			fmt.Println("Failed to create the log folder and Mkdir err :: ", err)
		}
	}
}
