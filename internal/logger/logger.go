package logger

import (
    "io"
    "os"
    "time"

    ginlog "github.com/gin-contrib/logger"
    "github.com/gin-gonic/gin"
    "github.com/natefinch/lumberjack"
    logrus "github.com/sirupsen/logrus"
)

// Setup initializes Logrus (and through it GORM) logging via a rotating file.
// The returned writer is shared with the request logger.
func Setup(file, level string) (*logrus.Logger, io.Writer) {
    // 1) Lumberjack for file rotation
    rotator := &lumberjack.Logger{
        Filename:   file,
        MaxSize:    10,  // megabytes
        MaxBackups: 7,   // keep up to 7 old files
        MaxAge:     7,   // days
        Compress:   true,
    }
    out := io.MultiWriter(os.Stdout, rotator)

    // 2) Configure Logrus to write to that file
    logrus.SetOutput(out)
    logrus.SetFormatter(&logrus.TextFormatter{
        FullTimestamp:   true,
        TimestampFormat: time.RFC3339,
    })
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        lvl = logrus.InfoLevel
    }
    logrus.SetLevel(lvl)

    return logrus.StandardLogger(), out
}

// Requests returns the gin request logging middleware writing to out.
func Requests(out io.Writer) gin.HandlerFunc {
    return ginlog.SetLogger(
        ginlog.WithWriter(out),
        ginlog.WithUTC(true),
        ginlog.WithSkipPath([]string{"/healthz"}),
    )
}
