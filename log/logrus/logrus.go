// Copyright (c) 2026 The MetaWallet Authors. All rights reserved.
// This file is part of go-metawallet. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

// Package logrus implements a go-metawallet logger backed by logrus.
package logrus // import "genesis.network/go-metawallet/log/logrus"

import (
	"github.com/sirupsen/logrus"

	"genesis.network/go-metawallet/log"
)

// Logger wraps a logrus.FieldLogger and implements log.Logger.
type Logger struct {
	logrus.FieldLogger
}

var _ log.Logger = (*Logger)(nil)

// FromLogrus creates a logger from a logrus.Logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{l}
}

// Set sets a logrus logger with the given level and formatter as the
// framework logger.
func Set(level logrus.Level, formatter logrus.Formatter) {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	log.Set(FromLogrus(logger))
}

// Tracef logs at trace level. logrus.FieldLogger lacks the trace methods, so
// they are routed through the underlying entry or logger when possible.
func (l *Logger) Tracef(format string, args ...interface{}) {
	switch fl := l.FieldLogger.(type) {
	case *logrus.Logger:
		fl.Tracef(format, args...)
	case *logrus.Entry:
		fl.Tracef(format, args...)
	default:
		fl.Debugf(format, args...)
	}
}

// Trace logs at trace level.
func (l *Logger) Trace(args ...interface{}) {
	switch fl := l.FieldLogger.(type) {
	case *logrus.Logger:
		fl.Trace(args...)
	case *logrus.Entry:
		fl.Trace(args...)
	default:
		fl.Debug(args...)
	}
}

// Traceln logs at trace level.
func (l *Logger) Traceln(args ...interface{}) {
	switch fl := l.FieldLogger.(type) {
	case *logrus.Logger:
		fl.Traceln(args...)
	case *logrus.Entry:
		fl.Traceln(args...)
	default:
		fl.Debugln(args...)
	}
}

// WithField calls WithField on the logrus.FieldLogger.
func (l *Logger) WithField(key string, value interface{}) log.Logger {
	return &Logger{l.FieldLogger.WithField(key, value)}
}

// WithFields calls WithFields on the logrus.FieldLogger.
func (l *Logger) WithFields(fs log.Fields) log.Logger {
	return &Logger{l.FieldLogger.WithFields(logrus.Fields(fs))}
}

// WithError calls WithError on the logrus.FieldLogger.
func (l *Logger) WithError(err error) log.Logger {
	return &Logger{l.FieldLogger.WithError(err)}
}
